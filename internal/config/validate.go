// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.Logger.Level)); err != nil {
		return fmt.Errorf("logger: invalid level %q", cfg.Logger.Level)
	}

	// ------------------------------------------------------------
	// INVERTER / SERIAL
	// ------------------------------------------------------------

	inv := cfg.Inverter

	if inv.SlaveID == 0 || inv.SlaveID > 247 {
		return fmt.Errorf("inverter %q: slave_id %d out of range 1..247", inv.Name, inv.SlaveID)
	}

	if !inv.Emulate {
		if inv.Serial.Device == "" {
			return fmt.Errorf("inverter %q: serial.device is required unless emulate is set", inv.Name)
		}
		if inv.DirectionGPIO != nil && inv.Serial.KernelRS485 {
			return fmt.Errorf("inverter %q: direction_gpio and serial.kernel_rs485 are mutually exclusive", inv.Name)
		}
	}

	s := inv.Serial
	if s.BaudRate <= 0 {
		return fmt.Errorf("inverter %q: serial.baud_rate must be > 0", inv.Name)
	}
	if s.DataBits < 5 || s.DataBits > 8 {
		return fmt.Errorf("inverter %q: serial.data_bits must be 5..8", inv.Name)
	}
	switch s.Parity {
	case "N", "E", "O":
	default:
		return fmt.Errorf("inverter %q: serial.parity must be N, E or O", inv.Name)
	}
	if s.StopBits != 1 && s.StopBits != 2 {
		return fmt.Errorf("inverter %q: serial.stop_bits must be 1 or 2", inv.Name)
	}
	if s.TimeoutMs <= 0 {
		return fmt.Errorf("inverter %q: serial.timeout_ms must be > 0", inv.Name)
	}

	// ------------------------------------------------------------
	// POLL TIMING
	// ------------------------------------------------------------

	p := inv.Poll
	if p.SettleMs < 0 {
		return fmt.Errorf("inverter %q: poll.settle_ms must be >= 0", inv.Name)
	}
	if p.RetryIntervalMs < 0 {
		return fmt.Errorf("inverter %q: poll.retry_interval_ms must be >= 0", inv.Name)
	}
	if p.RetryAttempts < 1 {
		return fmt.Errorf("inverter %q: poll.retry_attempts must be >= 1", inv.Name)
	}
	if p.FrequentIntervalS <= 0 {
		return fmt.Errorf("inverter %q: poll.frequent_interval_s must be > 0", inv.Name)
	}
	if p.SeldomIntervalS < p.FrequentIntervalS {
		return fmt.Errorf(
			"inverter %q: poll.seldom_interval_s (%d) must be >= frequent_interval_s (%d)",
			inv.Name,
			p.SeldomIntervalS,
			p.FrequentIntervalS,
		)
	}

	// ------------------------------------------------------------
	// VOLKSZAEHLER CHANNELS
	// ------------------------------------------------------------

	vz := cfg.Volkszaehler
	anyChannel := false

	for name, id := range vz.Channels.named() {
		if id == NullChannel {
			continue
		}
		anyChannel = true
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("volkszaehler: channel %s: invalid uuid %q", name, id)
		}
	}

	if anyChannel && vz.Server == "" {
		return fmt.Errorf("volkszaehler: server is required when a channel is set")
	}
	if strings.Contains(vz.Server, "/") {
		return fmt.Errorf("volkszaehler: server %q must be host[:port] only", vz.Server)
	}
	if vz.TimeoutMs <= 0 {
		return fmt.Errorf("volkszaehler: timeout_ms must be > 0")
	}

	// ------------------------------------------------------------
	// SENSOR
	// ------------------------------------------------------------

	if cfg.Sensor.Enabled && cfg.Sensor.IntervalS <= 0 {
		return fmt.Errorf("sensor: interval_s must be > 0")
	}

	// ------------------------------------------------------------
	// GPIO COLLISIONS
	// ------------------------------------------------------------

	used := make(map[int]string)
	for name, pin := range map[string]*int{
		"inverter.direction_gpio": inv.DirectionGPIO,
		"leds.busy_gpio":          cfg.LEDs.BusyGPIO,
		"leds.error_gpio":         cfg.LEDs.ErrorGPIO,
	} {
		if pin == nil {
			continue
		}
		if *pin < 0 {
			return fmt.Errorf("%s: gpio %d must be >= 0", name, *pin)
		}
		if prev, exists := used[*pin]; exists {
			return fmt.Errorf("gpio collision: pin %d used by %s and %s", *pin, prev, name)
		}
		used[*pin] = name
	}

	return nil
}

// named maps yaml key to channel id.
func (c ChannelsConfig) named() map[string]string {
	return map[string]string{
		"power":             c.Power,
		"dc_u":              c.DCVoltage,
		"dc_i":              c.DCCurrent,
		"dc_power":          c.DCPower,
		"energy_today":      c.EnergyToday,
		"energy_last_day":   c.EnergyLastDay,
		"energy_last_month": c.EnergyLastMonth,
		"heart_beat":        c.HeartBeat,
		"temperature":       c.Temperature,
	}
}
