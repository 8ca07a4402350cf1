// cmd/solis-logger/loop_test.go
package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/solis-logger/internal/dashboard"
	"github.com/tamzrod/solis-logger/internal/poller"
	pmodbus "github.com/tamzrod/solis-logger/internal/poller/modbus"
	"github.com/tamzrod/solis-logger/internal/status"
	"github.com/tamzrod/solis-logger/internal/writer"
)

// ---- fakes ----

type fakeWriter struct {
	events []poller.Event
	err    error
}

func (w *fakeWriter) Write(_ context.Context, ev poller.Event) error {
	w.events = append(w.events, ev)
	return w.err
}

type fakePublisher struct {
	beats []time.Time
	temps []float64
}

func (p *fakePublisher) Heartbeat(_ context.Context, at time.Time) error {
	p.beats = append(p.beats, at)
	return nil
}

func (p *fakePublisher) PublishTemperature(_ context.Context, _ time.Time, c float64) error {
	p.temps = append(p.temps, c)
	return nil
}

type fixedSensor float64

func (s fixedSensor) Read() float64 { return float64(s) }

func newConsumer(data writer.Writer, reach *status.Reachability) (*consumer, *dashboard.Board, *fakePublisher) {
	board := dashboard.NewBoard()
	pub := &fakePublisher{}
	return &consumer{
		data:      data,
		status:    writer.NewStatusWriter(board),
		tracker:   status.NewTracker(),
		reach:     reach,
		publisher: pub,
		board:     board,
		metrics:   dashboard.NewMetrics(),
		sensor:    fixedSensor(21.5),
		log:       zerolog.Nop(),
	}, board, pub
}

func failedEvent() poller.Event {
	return poller.Event{
		Kind: poller.EventFrequent,
		At:   time.Now(),
		Results: []poller.CycleResult{{
			Group:    poller.GroupPower,
			Attempts: 2,
			Outcomes: []poller.Outcome{{Block: "power", Err: &pmodbus.Error{Kind: pmodbus.KindTimeout, Status: pmodbus.CodeTimedOut}}},
		}},
	}
}

// ---- tests ----

func TestConsumer_FailedEventSetsDangerCardAndLatches(t *testing.T) {
	data := &fakeWriter{err: errors.New("post failed")}
	reach := status.NewReachability()
	c, board, _ := newConsumer(data, reach)

	reach.RecordCycleResult(false)
	c.handleEvent(context.Background(), failedEvent())

	require.Len(t, data.events, 1)

	card, ok := board.Card(dashboard.CardInverterStatus)
	require.True(t, ok)
	assert.Equal(t, status.StateDanger, card.State)
	assert.Equal(t, "0xE2", card.Value)

	changed, _ := reach.Edge()
	assert.False(t, changed, "latched after the event")
	assert.False(t, reach.Previous())
}

func TestConsumer_LatchesHandledEventNotLiveState(t *testing.T) {
	reach := status.NewReachability()
	c, _, _ := newConsumer(&fakeWriter{}, reach)

	// the poller finished a good cycle while this failed event was in flight
	reach.RecordCycleResult(true)
	c.handleEvent(context.Background(), failedEvent())

	assert.False(t, reach.Previous())
	changed, down := reach.Edge()
	assert.True(t, changed, "recovery edge still pending for the next event")
	assert.False(t, down)
}

func TestConsumer_PartialSeldomFailureIsUnhealthy(t *testing.T) {
	reach := status.NewReachability()
	c, board, _ := newConsumer(&fakeWriter{}, reach)

	reach.RecordCycleResult(true)
	c.handleEvent(context.Background(), poller.Event{
		Kind:      poller.EventSeldom,
		At:        time.Now(),
		Reachable: true,
		Results: []poller.CycleResult{
			{
				Group:    poller.GroupDayEnergy,
				Attempts: 2,
				Outcomes: []poller.Outcome{{Block: "day-energy", Err: &pmodbus.Error{Kind: pmodbus.KindTimeout, Status: pmodbus.CodeTimedOut}}},
			},
			{Group: poller.GroupMonthYear, Attempts: 1, Succeeded: true},
		},
	})

	card, _ := board.Card(dashboard.CardInverterStatus)
	assert.Equal(t, status.StateDanger, card.State)
	assert.Equal(t, "0xE2", card.Value)
	assert.True(t, reach.Previous())
}

func TestConsumer_RecoveryClearsStatus(t *testing.T) {
	reach := status.NewReachability()
	c, board, _ := newConsumer(&fakeWriter{}, reach)

	c.handleEvent(context.Background(), failedEvent())
	c.tracker.Tick()

	reach.RecordCycleResult(true)
	c.handleEvent(context.Background(), poller.Event{
		Kind:      poller.EventFrequent,
		At:        time.Now(),
		Reachable: true,
		Results:   []poller.CycleResult{{Group: poller.GroupPower, Attempts: 1, Succeeded: true}},
	})

	card, _ := board.Card(dashboard.CardInverterStatus)
	assert.Equal(t, status.StateSuccess, card.State)
	assert.Equal(t, "0x0", card.Value)

	card, _ = board.Card(dashboard.CardErrorDuration)
	assert.Equal(t, "-", card.Value)
}

func TestConsumer_HeartbeatAndSensor(t *testing.T) {
	c, board, pub := newConsumer(&fakeWriter{}, status.NewReachability())
	now := time.Unix(1700000000, 0)

	c.heartbeat(context.Background(), now)
	c.heartbeat(context.Background(), now)
	c.readSensor(context.Background(), now)

	assert.Len(t, pub.beats, 2)
	card, _ := board.Card(dashboard.CardLoopStatus)
	assert.Equal(t, "waiting in loop, #2", card.Value)

	assert.Equal(t, []float64{21.5}, pub.temps)
	card, _ = board.Card(dashboard.CardSensorTemperature)
	assert.Equal(t, 21.5, card.Value)
}

func TestConsumer_RunStopsOnCancel(t *testing.T) {
	c, board, _ := newConsumer(&fakeWriter{}, status.NewReachability())
	events := make(chan poller.Event)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.run(ctx, events, intervals{heartbeat: time.Hour, sensor: time.Hour})
	}()

	events <- failedEvent()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop")
	}

	_, ok := board.Card(dashboard.CardInverterStatus)
	assert.True(t, ok)
}
