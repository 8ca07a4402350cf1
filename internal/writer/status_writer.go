// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/solis-logger/internal/dashboard"
	"github.com/tamzrod/solis-logger/internal/status"
)

// StatusWriter is the delivery-only contract for inverter status.
// It receives a snapshot and writes it verbatim.
// No logic, no state, no interpretation.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// cardStatusWriter renders status snapshots onto dashboard cards.
type cardStatusWriter struct {
	sink dashboard.Sink

	needFull bool
	last     status.Snapshot
}

// NewStatusWriter builds the status writer for the inverter cards.
func NewStatusWriter(sink dashboard.Sink) StatusWriter {
	return &cardStatusWriter{
		sink:     sink,
		needFull: true, // full re-assert on first write
		last:     status.Snapshot{Health: status.HealthUnknown},
	}
}

// WriteStatus delivers a status snapshot.
// Only changed cards are written; on any failure the next call
// re-asserts every card.
func (sw *cardStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.sink == nil {
		return errors.New("status writer: disabled")
	}

	// ------------------------------------------------------------
	// Full write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		if err := sw.writeCode(s); err != nil {
			return fmt.Errorf("status writer: full write failed: %w", err)
		}
		if err := sw.writeDuration(s); err != nil {
			return fmt.Errorf("status writer: full write failed: %w", err)
		}

		sw.needFull = false
		sw.last = s
		return nil
	}

	var errs []string

	healthChanged := sw.last.Health != s.Health

	if healthChanged || sw.last.LastErrorCode != s.LastErrorCode {
		if err := sw.writeCode(s); err != nil {
			errs = append(errs, fmt.Sprintf("status card write failed: %v", err))
		} else {
			sw.last.Health = s.Health
			sw.last.LastErrorCode = s.LastErrorCode
		}
	}

	// The duration card also depends on health.
	if healthChanged || sw.last.SecondsInError != s.SecondsInError {
		if err := sw.writeDuration(s); err != nil {
			errs = append(errs, fmt.Sprintf("duration card write failed: %v", err))
		} else {
			sw.last.SecondsInError = s.SecondsInError
		}
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt; re-assert on next call.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	return nil
}

func (sw *cardStatusWriter) writeCode(s status.Snapshot) error {
	c := status.Encode(s)
	return sw.sink.UpdateStatus(dashboard.CardInverterStatus, c.Value, c.State)
}

func (sw *cardStatusWriter) writeDuration(s status.Snapshot) error {
	c := status.EncodeDuration(s)
	return sw.sink.UpdateStatus(dashboard.CardErrorDuration, c.Value, c.State)
}
