// internal/poller/orchestrator.go
package poller

import (
	"errors"
	"fmt"

	"github.com/avast/retry-go/v4"

	"github.com/tamzrod/solis-logger/internal/snapshot"
)

// attemptResult is the outcome of one pass over a group's blocks.
type attemptResult struct {
	outcomes []Outcome
	values   map[snapshot.Field]float64
}

func (a attemptResult) err() error {
	var errs []error
	misuse := false
	for _, o := range a.outcomes {
		if o.Err == nil {
			continue
		}
		errs = append(errs, o.Err)
		if errors.Is(o.Err, ErrCallerMisuse) {
			misuse = true
		}
	}
	err := errors.Join(errs...)
	if misuse {
		return retry.Unrecoverable(err)
	}
	return err
}

// runGroup drives Idle -> Attempting -> {Succeeded | Retrying -> ... -> ExhaustedFailed}.
//
// Every block is issued in order inside an attempt, even after one fails,
// so the outcome list attributes every failure. Values are committed only
// from the attempt that succeeded. On exhaustion the group's live fields are
// zeroed and energy counters are kept.
func (p *InverterPoller) runGroup(g Group) CycleResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	blocks := groupBlocks[g]
	started := p.clock.Now()

	p.setBusy(true)
	defer p.setBusy(false)

	log := p.log.With().Str("group", g.String()).Logger()

	var (
		last     attemptResult
		attempts int
	)

	err := retry.Do(
		func() error {
			attempts++
			last = p.attempt(blocks)
			return last.err()
		},
		retry.Attempts(uint(p.cfg.RetryAttempts)),
		retry.Delay(p.cfg.RetryInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.WithTimer(p.clock),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().Uint("attempt", n+1).Err(err).Msg("attempt failed")
		}),
	)

	res := CycleResult{
		Group:     g,
		Attempts:  attempts,
		Outcomes:  last.outcomes,
		Succeeded: err == nil,
		At:        started,
	}

	now := p.clock.Now()
	if res.Succeeded {
		p.store.Commit(last.values, nil, now)
	} else {
		p.store.Commit(nil, instantaneousFields(blocks), now)
	}
	p.reach.RecordCycleResult(res.Succeeded)

	res.Duration = now.Sub(started)

	if res.Succeeded {
		log.Debug().Int("attempts", attempts).Dur("took", res.Duration).Msg("cycle ok")
	} else {
		log.Warn().
			Int("attempts", attempts).
			Str("code", fmt.Sprintf("0x%X", res.Code())).
			Err(res.Err()).
			Msg("inverter unreachable")
	}

	return res
}

// attempt issues every block once and collects decoded values.
func (p *InverterPoller) attempt(blocks []BlockSpec) attemptResult {
	res := attemptResult{
		outcomes: make([]Outcome, 0, len(blocks)),
		values:   make(map[snapshot.Field]float64),
	}

	for _, b := range blocks {
		vals, err := p.readBlock(b)
		res.outcomes = append(res.outcomes, Outcome{Block: b.Name, Err: err})
		if err != nil {
			continue
		}
		for f, v := range vals {
			res.values[f] = v
		}
	}
	return res
}

func (p *InverterPoller) setBusy(on bool) {
	if err := p.busy.Set(on); err != nil {
		p.log.Debug().Err(err).Msg("busy indicator")
	}
}
