// internal/poller/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/goburrow/serial"
	"github.com/rs/zerolog"

	"github.com/tamzrod/solis-logger/internal/gpio"
)

// Client implements poller.Client using Modbus RTU over a half-duplex bus.
// This adapter is geometry-only: it issues FC 0x04 and unpacks raw words.
type Client struct {
	mu     sync.Mutex
	client modbus.Client
	port   io.Closer
}

// Config is minimal transport config.
type Config struct {
	Device   string
	BaudRate int
	DataBits int
	Parity   string
	StopBits int
	SlaveID  uint8
	Timeout  time.Duration

	// KernelRS485 lets the UART driver toggle RTS as the direction line.
	KernelRS485 bool

	// Direction drives DE/RE when KernelRS485 is off. nil => no line.
	Direction gpio.Line

	Logger zerolog.Logger
}

// New opens the serial device and returns a ready client.
func New(cfg Config) (*Client, error) {
	if cfg.Device == "" {
		return nil, errors.New("modbus client: device required")
	}

	sc := &serial.Config{
		Address:  cfg.Device,
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: cfg.StopBits,
		Parity:   cfg.Parity,
		Timeout:  cfg.Timeout,
	}
	if cfg.KernelRS485 {
		sc.RS485 = serial.RS485Config{
			Enabled:           true,
			RtsHighDuringSend: true,
			RtsHighAfterSend:  false,
		}
	}

	port, err := serial.Open(sc)
	if err != nil {
		return nil, fmt.Errorf("modbus client: open %s: %w", cfg.Device, err)
	}

	return NewWithPort(port, cfg), nil
}

// NewWithPort builds a client over an already open port.
// Used for the emulated inverter and tests.
func NewWithPort(port io.ReadWriteCloser, cfg Config) *Client {
	handler := modbus.NewRTUClientHandler(cfg.Device)
	handler.SlaveId = cfg.SlaveID

	dir := NewDirectionController(cfg.Direction, cfg.Logger)
	tr := NewHalfDuplex(port, dir, handler, cfg.BaudRate, cfg.Logger)

	return &Client{
		client: modbus.NewClient2(handler, tr),
		port:   port,
	}
}

// Close releases the serial port.
func (c *Client) Close() error {
	if c == nil || c.port == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port.Close()
}

// ---- poller.Client interface ----

// ReadInputRegisters issues one FC 0x04 exchange.
func (c *Client) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.client.ReadInputRegisters(addr, qty)
	if err != nil {
		return nil, classify(err)
	}
	if len(raw) != int(qty)*2 {
		return nil, frameError(CodeInvalidCRC, "read-registers returned %d bytes, want %d", len(raw), int(qty)*2)
	}
	return unpackRegisters(raw), nil
}

// classify maps library errors onto *Error.
func classify(err error) error {
	var me *Error
	if errors.As(err, &me) {
		return me
	}

	var ex *modbus.ModbusError
	if errors.As(err, &ex) {
		return &Error{Kind: KindException, Status: uint16(ex.ExceptionCode), Err: err}
	}

	// Size/count mismatches reported by the library.
	return &Error{Kind: KindFrame, Status: CodeInvalidCRC, Err: err}
}

// ---- helpers (pure geometry) ----

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
