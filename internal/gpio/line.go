// internal/gpio/line.go
package gpio

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Line is a single digital output.
type Line interface {
	Set(high bool) error
	Close() error
}

// Pin drives a periph GPIO as an output.
// Writes are serialized.
type Pin struct {
	mu     sync.Mutex
	pin    gpio.PinOut
	closed bool
}

// NewPin drives p low and wraps it.
func NewPin(p gpio.PinOut) (*Pin, error) {
	if p == nil {
		return nil, errors.New("gpio: nil pin")
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("gpio %s: out: %w", p, err)
	}
	return &Pin{pin: p}, nil
}

// Set drives the line high or low.
func (p *Pin) Set(high bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("gpio %s: closed", p.pin)
	}

	level := gpio.Low
	if high {
		level = gpio.High
	}
	if err := p.pin.Out(level); err != nil {
		return fmt.Errorf("gpio %s: write: %w", p.pin, err)
	}
	return nil
}

// Close drives the line low and halts the pin.
func (p *Pin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	_ = p.pin.Out(gpio.Low)
	return p.pin.Halt()
}

// Nop is a Line that does nothing.
type Nop struct{}

func (Nop) Set(bool) error { return nil }
func (Nop) Close() error   { return nil }

var (
	initOnce sync.Once
	initErr  error
)

// Open returns the host GPIO numbered pin, or Nop when pin is nil.
func Open(pin *int) (Line, error) {
	if pin == nil {
		return Nop{}, nil
	}
	if *pin < 0 {
		return nil, errors.New("gpio: pin must be >= 0")
	}

	initOnce.Do(func() { _, initErr = host.Init() })
	if initErr != nil {
		return nil, fmt.Errorf("gpio: host init: %w", initErr)
	}

	p := gpioreg.ByName(strconv.Itoa(*pin))
	if p == nil {
		return nil, fmt.Errorf("gpio %d: not found", *pin)
	}
	return NewPin(p)
}
