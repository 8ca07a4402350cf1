// internal/snapshot/snapshot.go
package snapshot

import (
	"sync"
	"time"
)

// Field identifies one decoded inverter quantity.
type Field uint8

const (
	Power Field = iota // W
	DCPower            // W
	DCVoltage          // V
	DCCurrent          // A
	ACVoltage          // V
	ACCurrent          // A
	ACFrequency        // Hz
	Temperature        // °C
	EnergyToday        // kWh
	EnergyLastDay      // kWh
	EnergyThisMonth    // kWh
	EnergyLastMonth    // kWh
	EnergyThisYear     // kWh
	EnergyLastYear     // kWh
	TotalEnergy        // kWh

	numFields
)

var fieldNames = [numFields]string{
	Power:           "power",
	DCPower:         "dc_power",
	DCVoltage:       "dc_u",
	DCCurrent:       "dc_i",
	ACVoltage:       "ac_u",
	ACCurrent:       "ac_i",
	ACFrequency:     "ac_f",
	Temperature:     "temperature",
	EnergyToday:     "energy_today",
	EnergyLastDay:   "energy_last_day",
	EnergyThisMonth: "energy_this_month",
	EnergyLastMonth: "energy_last_month",
	EnergyThisYear:  "energy_this_year",
	EnergyLastYear:  "energy_last_year",
	TotalEnergy:     "energy_total",
}

func (f Field) String() string {
	if f >= numFields {
		return "unknown"
	}
	return fieldNames[f]
}

// Instantaneous reports whether the field is a live measurement.
// Live measurements are zeroed when the inverter stops answering;
// energy counters are not.
func (f Field) Instantaneous() bool {
	return f <= Temperature
}

// Fields lists every field in declaration order.
func Fields() []Field {
	out := make([]Field, 0, numFields)
	for f := Field(0); f < numFields; f++ {
		out = append(out, f)
	}
	return out
}

// Readings is a value copy of every quantity.
type Readings [numFields]float64

func (r Readings) Get(f Field) float64 { return r[f] }

func (r *Readings) Set(f Field, v float64) { r[f] = v }

// Map returns readings keyed by field name.
func (r Readings) Map() map[string]float64 {
	out := make(map[string]float64, numFields)
	for f := Field(0); f < numFields; f++ {
		out[f.String()] = r[f]
	}
	return out
}

// Store holds the latest readings.
// Single writer (the poller), many readers.
type Store struct {
	mu        sync.RWMutex
	readings  Readings
	updatedAt time.Time
}

func NewStore() *Store {
	return &Store{}
}

// Commit applies values and zeroes fields in one locked step.
// Fields absent from both are left untouched.
func (s *Store) Commit(values map[Field]float64, zero []Field, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for f, v := range values {
		s.readings[f] = v
	}
	for _, f := range zero {
		s.readings[f] = 0
	}
	s.updatedAt = at
}

// Readings returns a consistent copy.
func (s *Store) Readings() Readings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readings
}

func (s *Store) Get(f Field) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readings[f]
}

// UpdatedAt is the time of the last commit.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
