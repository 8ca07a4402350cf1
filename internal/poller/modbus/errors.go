// internal/poller/modbus/errors.go
package modbus

import (
	"errors"
	"fmt"
)

// Kind classifies a failed exchange.
type Kind uint8

const (
	KindTimeout   Kind = iota + 1 // no (complete) answer within the port timeout
	KindFrame                     // answer arrived but is malformed
	KindException                 // slave answered with a Modbus exception
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindFrame:
		return "frame"
	case KindException:
		return "exception"
	default:
		return "unknown"
	}
}

// Status codes reported for failed exchanges.
// Values below 0xE0 are Modbus exception codes.
const (
	CodeInvalidSlaveID  uint16 = 0xE0
	CodeInvalidFunction uint16 = 0xE1
	CodeTimedOut        uint16 = 0xE2
	CodeInvalidCRC      uint16 = 0xE3
)

var (
	ErrTimeout   = errors.New("modbus: response timed out")
	ErrFrame     = errors.New("modbus: invalid response frame")
	ErrException = errors.New("modbus: exception response")
)

// Error is returned by every failed exchange.
type Error struct {
	Kind   Kind
	Status uint16
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("modbus %s (0x%02X): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("modbus %s (0x%02X)", e.Kind, e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the package sentinels by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrFrame:
		return e.Kind == KindFrame
	case ErrException:
		return e.Kind == KindException
	}
	return false
}

// Code exposes the status code for status reporting.
func (e *Error) Code() uint16 { return e.Status }

func timeoutError(err error) *Error {
	return &Error{Kind: KindTimeout, Status: CodeTimedOut, Err: err}
}

func frameError(status uint16, format string, args ...any) *Error {
	return &Error{Kind: KindFrame, Status: status, Err: fmt.Errorf(format, args...)}
}
