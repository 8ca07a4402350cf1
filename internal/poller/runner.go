// internal/poller/runner.go
package poller

import (
	"context"
	"time"

	"github.com/tamzrod/solis-logger/internal/snapshot"
)

// EventKind tells which schedule slot produced an Event.
type EventKind uint8

const (
	EventStartup EventKind = iota + 1
	EventFrequent
	EventSeldom
)

func (k EventKind) String() string {
	switch k {
	case EventStartup:
		return "startup"
	case EventFrequent:
		return "frequent"
	case EventSeldom:
		return "seldom"
	default:
		return "unknown"
	}
}

// Event is emitted after every scheduled cycle.
// At is the start of the first cycle; Readings is a copy taken after the
// last cycle committed.
type Event struct {
	Kind      EventKind
	At        time.Time
	Results   []CycleResult
	Readings  snapshot.Readings
	Reachable bool
}

// Succeeded reports whether every cycle in the event succeeded.
func (e Event) Succeeded() bool {
	if len(e.Results) == 0 {
		return false
	}
	for _, r := range e.Results {
		if !r.Succeeded {
			return false
		}
	}
	return true
}

// GroupSucceeded reports the outcome for g; false if g was not polled.
func (e Event) GroupSucceeded(g Group) bool {
	for _, r := range e.Results {
		if r.Group == g {
			return r.Succeeded
		}
	}
	return false
}

// Run does one full read, then polls on the frequent and seldom intervals
// and emits an Event per slot. One goroutine. No overlap.
// A started cycle always completes; ctx is checked between cycles.
func (p *InverterPoller) Run(ctx context.Context, out chan<- Event) {
	if !p.emit(ctx, out, EventStartup, p.PollAll()) {
		return
	}

	frequent := time.NewTicker(p.cfg.FrequentInterval)
	defer frequent.Stop()

	seldom := time.NewTicker(p.cfg.SeldomInterval)
	defer seldom.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-frequent.C:
			if !p.emit(ctx, out, EventFrequent, p.PollPowerGroup()) {
				return
			}

		case <-seldom.C:
			day := p.PollDayEnergyGroup()
			if ctx.Err() != nil {
				return
			}
			if !p.emit(ctx, out, EventSeldom, day, p.PollMonthYearGroup()) {
				return
			}
		}
	}
}

func (p *InverterPoller) emit(ctx context.Context, out chan<- Event, kind EventKind, results ...CycleResult) bool {
	at := p.clock.Now()
	if len(results) > 0 {
		at = results[0].At
	}

	ev := Event{
		Kind:      kind,
		At:        at,
		Results:   results,
		Readings:  p.store.Readings(),
		Reachable: p.reach.Current(),
	}

	select {
	case <-ctx.Done():
		return false
	case out <- ev:
		return true
	}
}
