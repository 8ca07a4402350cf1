// internal/poller/builder.go
package poller

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	cfg "github.com/tamzrod/solis-logger/internal/config"
	"github.com/tamzrod/solis-logger/internal/emulator"
	"github.com/tamzrod/solis-logger/internal/gpio"
	pmodbus "github.com/tamzrod/solis-logger/internal/poller/modbus"
)

// Build constructs an InverterPoller and wires the bus lifecycle.
// The serial port is opened once here (fail fast at startup) and kept.
// The returned closer releases the port and the direction line.
func Build(inv cfg.InverterConfig, log zerolog.Logger, opts ...Option) (*InverterPoller, func() error, error) {
	dirLine, err := gpio.Open(inv.DirectionGPIO)
	if err != nil {
		return nil, nil, fmt.Errorf("poller: direction line: %w", err)
	}

	mcfg := pmodbus.Config{
		Device:      inv.Serial.Device,
		BaudRate:    inv.Serial.BaudRate,
		DataBits:    inv.Serial.DataBits,
		Parity:      inv.Serial.Parity,
		StopBits:    inv.Serial.StopBits,
		SlaveID:     inv.SlaveID,
		Timeout:     time.Duration(inv.Serial.TimeoutMs) * time.Millisecond,
		KernelRS485: inv.Serial.KernelRS485,
		Direction:   dirLine,
		Logger:      log.With().Str("component", "modbus").Logger(),
	}

	var client *pmodbus.Client
	if inv.Emulate {
		mcfg.Device = "emulated"
		client = pmodbus.NewWithPort(emulator.NewSolarDay(inv.SlaveID, 5000, time.Now), mcfg)
	} else {
		client, err = pmodbus.New(mcfg)
		if err != nil {
			_ = dirLine.Close()
			return nil, nil, err
		}
	}

	p, err := New(
		Config{
			Name:             inv.Name,
			SettleDelay:      time.Duration(inv.Poll.SettleMs) * time.Millisecond,
			RetryInterval:    time.Duration(inv.Poll.RetryIntervalMs) * time.Millisecond,
			RetryAttempts:    inv.Poll.RetryAttempts,
			FrequentInterval: time.Duration(inv.Poll.FrequentIntervalS) * time.Second,
			SeldomInterval:   time.Duration(inv.Poll.SeldomIntervalS) * time.Second,
		},
		client,
		append([]Option{WithLogger(log)}, opts...)...,
	)
	if err != nil {
		_ = client.Close()
		_ = dirLine.Close()
		return nil, nil, err
	}

	closer := func() error {
		err := client.Close()
		if cerr := dirLine.Close(); err == nil {
			err = cerr
		}
		return err
	}
	return p, closer, nil
}
