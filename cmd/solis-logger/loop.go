// cmd/solis-logger/loop.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/solis-logger/internal/dashboard"
	"github.com/tamzrod/solis-logger/internal/poller"
	"github.com/tamzrod/solis-logger/internal/status"
	"github.com/tamzrod/solis-logger/internal/writer"
)

// reachability is the latch the consumer drives.
type reachability interface {
	LatchTo(reachable bool) (changed, wentDown bool)
}

type temperatureReader interface {
	Read() float64
}

type publisher interface {
	Heartbeat(ctx context.Context, at time.Time) error
	PublishTemperature(ctx context.Context, at time.Time, celsius float64) error
}

// consumer owns everything downstream of the poller.
// All of its methods run on one goroutine.
type consumer struct {
	data      writer.Writer
	status    writer.StatusWriter
	tracker   *status.Tracker
	reach     reachability
	publisher publisher
	board     dashboard.Sink
	metrics   *dashboard.Metrics
	sensor    temperatureReader // nil => disabled
	log       zerolog.Logger

	beats int
}

type intervals struct {
	heartbeat time.Duration
	sensor    time.Duration
}

// run consumes poll events until ctx is done.
func (c *consumer) run(ctx context.Context, events <-chan poller.Event, iv intervals) {
	// Full write on start (identity re-assert).
	c.writeStatus(c.tracker.Snapshot())

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	beat := time.NewTicker(iv.heartbeat)
	defer beat.Stop()

	var sensorC <-chan time.Time
	if c.sensor != nil {
		c.readSensor(ctx, time.Now())

		t := time.NewTicker(iv.sensor)
		defer t.Stop()
		sensorC = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-events:
			c.handleEvent(ctx, ev)

		case <-secTicker.C:
			// Tick 1 Hz while not OK.
			if snap, changed := c.tracker.Tick(); changed {
				c.writeStatus(snap)
			}

		case now := <-beat.C:
			c.heartbeat(ctx, now)

		case now := <-sensorC:
			c.readSensor(ctx, now)
		}
	}
}

func (c *consumer) handleEvent(ctx context.Context, ev poller.Event) {
	var code uint16
	for _, res := range ev.Results {
		c.metrics.ObserveCycle(res)
		code |= res.Code()
	}
	c.metrics.ObserveReadings(ev.Readings)
	c.metrics.SetReachable(ev.Reachable)

	// --- data delivery ---
	if err := c.data.Write(ctx, ev); err != nil {
		c.log.Warn().Err(err).Str("event", ev.Kind.String()).Msg("publish failed")
	}

	// --- reachability edge ---
	if changed, down := c.reach.LatchTo(ev.Reachable); changed {
		if down {
			c.log.Warn().Msg("inverter went offline")
		} else {
			c.log.Info().Msg("inverter back online")
		}
	}

	// --- status update ---
	if snap, changed := c.tracker.Observe(ev.Succeeded(), code); changed {
		c.writeStatus(snap)
	}
}

func (c *consumer) writeStatus(snap status.Snapshot) {
	c.metrics.SetSecondsInError(snap.SecondsInError)
	if err := c.status.WriteStatus(snap); err != nil {
		c.log.Warn().Err(err).Msg("status write failed")
	}
}

func (c *consumer) heartbeat(ctx context.Context, now time.Time) {
	c.beats++
	c.board.Update(dashboard.CardLoopStatus, fmt.Sprintf("waiting in loop, #%d", c.beats))
	c.board.Update(dashboard.CardTime, now.Format("2006-01-02 15:04:05"))

	if err := c.publisher.Heartbeat(ctx, now); err != nil {
		c.log.Warn().Err(err).Msg("heartbeat post failed")
	}
}

func (c *consumer) readSensor(ctx context.Context, now time.Time) {
	t := c.sensor.Read()

	c.metrics.SetSensorTemperature(t)
	c.board.Update(dashboard.CardSensorTemperature, t)

	if err := c.publisher.PublishTemperature(ctx, now, t); err != nil {
		c.log.Warn().Err(err).Msg("temperature post failed")
	}
}
