// internal/writer/writer.go
package writer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/solis-logger/internal/gpio"
	"github.com/tamzrod/solis-logger/internal/poller"
	"github.com/tamzrod/solis-logger/internal/snapshot"
	"github.com/tamzrod/solis-logger/internal/writer/volkszaehler"
)

// poster is the exact contract the publisher uses.
type poster interface {
	Post(ctx context.Context, channel string, at time.Time, value float64) (int, error)
}

// Publisher posts poll events to Volkszaehler.
//
// Frequent slot: power, dc_u, dc_i and dc_u*dc_i, only while reachable.
// Seldom slot: energy today and energy of the last day once per calendar
// day, when the day-energy group succeeded; energy of the last month once
// per calendar month, when the month/year group succeeded. The day and
// month latches advance only when the post was accepted.
type Publisher struct {
	plan    Plan
	vz      poster
	errLED  gpio.Line
	observe func(status int)
	log     zerolog.Logger

	mu        sync.Mutex
	lastDay   int
	lastMonth time.Month
	beats     uint32
}

type Option func(*Publisher)

// WithErrorIndicator drives a line high while the last event had a failed
// read or a failed post.
func WithErrorIndicator(line gpio.Line) Option { return func(p *Publisher) { p.errLED = line } }

// WithPostObserver is called with the status of every post.
func WithPostObserver(fn func(status int)) Option { return func(p *Publisher) { p.observe = fn } }

func WithLogger(l zerolog.Logger) Option { return func(p *Publisher) { p.log = l } }

func New(plan Plan, vz poster, opts ...Option) *Publisher {
	p := &Publisher{
		plan:      plan,
		vz:        vz,
		errLED:    gpio.Nop{},
		observe:   func(int) {},
		lastDay:   -1,
		lastMonth: -1,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Write publishes one event. A startup event publishes both slots.
func (p *Publisher) Write(ctx context.Context, ev poller.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []string

	switch ev.Kind {
	case poller.EventFrequent:
		errs = p.publishFrequent(ctx, ev)
	case poller.EventSeldom:
		errs = p.publishSeldom(ctx, ev)
	case poller.EventStartup:
		errs = append(p.publishFrequent(ctx, ev), p.publishSeldom(ctx, ev)...)
	default:
		return fmt.Errorf("writer: unknown event kind %d", ev.Kind)
	}

	failed := !ev.Succeeded() || len(errs) > 0
	if err := p.errLED.Set(failed); err != nil {
		p.log.Warn().Err(err).Msg("error indicator")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}

func (p *Publisher) publishFrequent(ctx context.Context, ev poller.Event) []string {
	if !ev.Reachable {
		return nil
	}

	ts := align(ev.At, p.plan.FrequentInterval)
	r := ev.Readings
	u, i := r.Get(snapshot.DCVoltage), r.Get(snapshot.DCCurrent)

	var errs []string
	for _, v := range []struct {
		channel string
		value   float64
	}{
		{p.plan.Channels.Power, r.Get(snapshot.Power)},
		{p.plan.Channels.DCVoltage, u},
		{p.plan.Channels.DCCurrent, i},
		{p.plan.Channels.DCPower, u * i},
	} {
		if _, err := p.post(ctx, v.channel, ts, v.value); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func (p *Publisher) publishSeldom(ctx context.Context, ev poller.Event) []string {
	ts := align(ev.At, p.plan.SeldomInterval)
	r := ev.Readings

	dayOK := ev.GroupSucceeded(poller.GroupDayEnergy) || ev.GroupSucceeded(poller.GroupAll)
	monthOK := ev.GroupSucceeded(poller.GroupMonthYear) || ev.GroupSucceeded(poller.GroupAll)

	var errs []string

	if dayOK {
		if _, err := p.post(ctx, p.plan.Channels.EnergyToday, ts, r.Get(snapshot.EnergyToday)); err != nil {
			errs = append(errs, err.Error())
		}
	}

	// Once per calendar day.
	if day := ev.At.YearDay(); day != p.lastDay {
		if !dayOK {
			errs = append(errs, "writer: energy last day pending, day-energy read failed")
		} else if _, err := p.post(ctx, p.plan.Channels.EnergyLastDay, ts, r.Get(snapshot.EnergyLastDay)); err != nil {
			errs = append(errs, err.Error())
		} else {
			p.lastDay = day
		}
	}

	// Once per calendar month.
	if month := ev.At.Month(); month != p.lastMonth {
		if !monthOK {
			errs = append(errs, "writer: energy last month pending, month/year read failed")
		} else if _, err := p.post(ctx, p.plan.Channels.EnergyLastMonth, ts, r.Get(snapshot.EnergyLastMonth)); err != nil {
			errs = append(errs, err.Error())
		} else {
			p.lastMonth = month
		}
	}

	return errs
}

// Heartbeat posts the next heartbeat counter value.
func (p *Publisher) Heartbeat(ctx context.Context, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.beats++
	if p.beats == HeartBeatReset || p.beats == HeartBeatStart {
		return nil
	}
	_, err := p.post(ctx, p.plan.Channels.HeartBeat, at, float64(p.beats))
	return err
}

// Started posts the start marker.
func (p *Publisher) Started(ctx context.Context, at time.Time) error {
	_, err := p.post(ctx, p.plan.Channels.HeartBeat, at, HeartBeatStart)
	return err
}

// Stopping posts the reset marker.
func (p *Publisher) Stopping(ctx context.Context, at time.Time) error {
	_, err := p.post(ctx, p.plan.Channels.HeartBeat, at, HeartBeatReset)
	return err
}

// PublishTemperature posts an external sensor reading.
func (p *Publisher) PublishTemperature(ctx context.Context, at time.Time, celsius float64) error {
	_, err := p.post(ctx, p.plan.Channels.Temperature, align(at, p.plan.SensorInterval), celsius)
	return err
}

// post sends one value. A null channel counts as delivered.
func (p *Publisher) post(ctx context.Context, channel string, ts time.Time, value float64) (int, error) {
	code, err := p.vz.Post(ctx, channel, ts, value)
	p.observe(code)

	if err != nil {
		return code, err
	}

	switch code {
	case http.StatusOK, volkszaehler.NoSendStatus:
		p.log.Debug().Str("channel", channel).Float64("value", value).Int("status", code).Msg("posted")
		return code, nil
	default:
		return code, fmt.Errorf("writer: channel %s status %d", channel, code)
	}
}

// align truncates t to a multiple of d in epoch seconds.
func align(t time.Time, d time.Duration) time.Time {
	s := int64(d / time.Second)
	if s <= 0 {
		return time.Unix(t.Unix(), 0)
	}
	sec := t.Unix()
	return time.Unix(sec-sec%s, 0)
}
