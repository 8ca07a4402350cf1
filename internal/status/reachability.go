// internal/status/reachability.go
package status

import "sync"

// Reachability holds the inverter reachable flags.
//
// current reflects the most recent completed cycle.
// previous is a latch the consumer sets after reading current;
// comparing the two gives edge detection across cycles.
type Reachability struct {
	mu       sync.RWMutex
	current  bool
	previous bool
}

// NewReachability starts unreachable with the latch set, so the first
// successful cycle does not read as a recovery edge.
func NewReachability() *Reachability {
	return &Reachability{current: false, previous: true}
}

// RecordCycleResult sets current from a finished cycle.
func (r *Reachability) RecordCycleResult(allSucceeded bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = allSucceeded
}

// LatchPrevious copies current into previous.
func (r *Reachability) LatchPrevious() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.previous = r.current
}

func (r *Reachability) Current() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *Reachability) Previous() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.previous
}

// LatchTo reports a change of reachable against the latch, then latches
// reachable. Callers pass the flag of the cycle they handled.
func (r *Reachability) LatchTo(reachable bool) (changed, wentDown bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed, wentDown = reachable != r.previous, r.previous && !reachable
	r.previous = reachable
	return changed, wentDown
}

// Edge reports a change of current against the latch.
// wentDown is true when the inverter just became unreachable.
func (r *Reachability) Edge() (changed, wentDown bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current != r.previous, r.previous && !r.current
}
