// internal/status/tracker.go
package status

import "sync"

// Tracker owns the status Snapshot between cycles.
// Observe is called per cycle; Tick at 1 Hz.
// Both report whether the snapshot changed so writers stay incremental.
type Tracker struct {
	mu   sync.Mutex
	snap Snapshot
}

func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown}}
}

// Observe records one finished cycle.
func (t *Tracker) Observe(ok bool, code uint16) (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	changed := false

	if ok {
		// Recovery / OK
		if t.snap.Health != HealthOK {
			t.snap.Health = HealthOK
			changed = true
		}
		if t.snap.LastErrorCode != 0 {
			t.snap.LastErrorCode = 0
			changed = true
		}
		if t.snap.SecondsInError != 0 {
			t.snap.SecondsInError = 0
			changed = true
		}
		return t.snap, changed
	}

	if t.snap.Health != HealthError {
		t.snap.Health = HealthError
		changed = true
	}
	if code == 0 {
		code = 1
	}
	if t.snap.LastErrorCode != code {
		t.snap.LastErrorCode = code
		changed = true
	}

	// NOTE: seconds_in_error increments on Tick only.
	return t.snap, changed
}

// Tick advances seconds_in_error while not OK.
func (t *Tracker) Tick() (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.snap.Health != HealthError || t.snap.SecondsInError >= SecondsInErrorMax {
		return t.snap, false
	}
	t.snap.SecondsInError++
	return t.snap, true
}

// Snapshot returns the current status.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}
