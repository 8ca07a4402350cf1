// internal/poller/modbus/direction.go
package modbus

import (
	"github.com/rs/zerolog"

	"github.com/tamzrod/solis-logger/internal/gpio"
)

// DirectionController owns the transceiver driver-enable line.
// High = transmit, low = receive. Receive is the resting state.
type DirectionController struct {
	line gpio.Line
	log  zerolog.Logger
}

func NewDirectionController(line gpio.Line, log zerolog.Logger) *DirectionController {
	if line == nil {
		line = gpio.Nop{}
	}
	return &DirectionController{line: line, log: log}
}

// BeforeSend switches the bus to transmit.
func (d *DirectionController) BeforeSend() {
	if err := d.line.Set(true); err != nil {
		d.log.Warn().Err(err).Msg("direction: set transmit failed")
	}
}

// AfterSend returns the bus to receive.
func (d *DirectionController) AfterSend() {
	if err := d.line.Set(false); err != nil {
		d.log.Warn().Err(err).Msg("direction: set receive failed")
	}
}
