// internal/sensor/ds18b20.go
package sensor

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
)

// Fallback values posted instead of a temperature.
const (
	NoSensor  = 85.1  // no 28-* device on the bus
	ReadError = -1.0  // device present but unreadable or CRC failed
	Disabled  = 127.0 // sensor disabled in config
)

// powerOnReset is the scratchpad value before the first conversion.
const powerOnReset = 85000

var (
	ErrNoSensor = errors.New("ds18b20: no sensor found")
	ErrCRC      = errors.New("ds18b20: crc check failed")
	ErrFormat   = errors.New("ds18b20: unexpected w1_slave format")
)

// DS18B20 reads one sensor through the w1-therm sysfs interface.
type DS18B20 struct {
	busPath string
	device  string // empty => first 28-* device
	enabled bool
	log     zerolog.Logger

	mu   sync.RWMutex
	last float64
	ok   bool
}

type Config struct {
	Enabled bool
	BusPath string // /sys/bus/w1/devices
	Device  string // 28-xxxxxxxxxxxx
	Logger  zerolog.Logger
}

func New(cfg Config) *DS18B20 {
	return &DS18B20{
		busPath: cfg.BusPath,
		device:  cfg.Device,
		enabled: cfg.Enabled,
		log:     cfg.Logger,
	}
}

// Read returns the temperature in °C, or one of the fallback values.
// It never fails; errors are logged.
func (s *DS18B20) Read() float64 {
	if !s.enabled {
		return Disabled
	}

	t, err := s.read()
	switch {
	case err == nil:
		s.log.Debug().Float64("celsius", t).Msg("ds18b20 read")
	case errors.Is(err, ErrNoSensor):
		s.log.Warn().Err(err).Str("bus", s.busPath).Msg("ds18b20 not found")
		t = NoSensor
	default:
		s.log.Warn().Err(err).Msg("ds18b20 read failed")
		t = ReadError
	}

	s.mu.Lock()
	s.last, s.ok = t, err == nil
	s.mu.Unlock()

	return t
}

// Last returns the most recent real reading.
// ok is false before the first good read or after a failed one.
func (s *DS18B20) Last() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.ok
}

func (s *DS18B20) read() (float64, error) {
	dev, err := s.resolve()
	if err != nil {
		return 0, err
	}

	data, err := os.ReadFile(filepath.Join(s.busPath, dev, "w1_slave"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrNoSensor, dev)
		}
		return 0, fmt.Errorf("ds18b20: %s: %w", dev, err)
	}
	return parse(data)
}

func (s *DS18B20) resolve() (string, error) {
	if s.device != "" {
		return s.device, nil
	}

	matches, err := filepath.Glob(filepath.Join(s.busPath, "28-*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", ErrNoSensor
	}
	sort.Strings(matches)
	return filepath.Base(matches[0]), nil
}

// parse decodes w1_slave content:
//
//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
//	72 01 4b 46 7f ff 0e 10 57 t=23125
func parse(data []byte) (float64, error) {
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	if len(lines) < 2 {
		return 0, ErrFormat
	}
	if !bytes.HasSuffix(bytes.TrimSpace(lines[0]), []byte("YES")) {
		return 0, ErrCRC
	}

	i := bytes.LastIndex(lines[1], []byte("t="))
	if i < 0 {
		return 0, ErrFormat
	}
	milli, err := strconv.Atoi(string(bytes.TrimSpace(lines[1][i+2:])))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if milli == powerOnReset {
		return 0, fmt.Errorf("ds18b20: power-on reset value, no conversion yet")
	}
	return float64(milli) / 1000, nil
}
