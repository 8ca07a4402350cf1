// internal/poller/errors.go
package poller

import (
	"errors"

	pmodbus "github.com/tamzrod/solis-logger/internal/poller/modbus"
)

var (
	// ErrTransportTimeout: no response within the port timeout.
	ErrTransportTimeout = pmodbus.ErrTimeout

	// ErrFrame: a response arrived but failed CRC, address or length checks.
	ErrFrame = pmodbus.ErrFrame

	// ErrCallerMisuse: a request the bus must never see. Not retried.
	ErrCallerMisuse = errors.New("poller: caller misuse")
)

// errorCode extracts a best-effort uint16 code from an error without assuming concrete types.
// If the error does not expose a code, returns 1 (generic error).
func errorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	type coder interface{ Code() uint16 }

	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return 1
}
