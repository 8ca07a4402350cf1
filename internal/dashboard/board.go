// internal/dashboard/board.go
package dashboard

import (
	"fmt"
	"sync"
	"time"

	"github.com/tamzrod/solis-logger/internal/status"
)

// Card names shown on the dashboard.
const (
	CardInverterStatus      = "inverter_status"
	CardErrorDuration       = "error_duration"
	CardLoopStatus          = "loop_status"
	CardTime                = "time"
	CardEpochTime           = "epoch_time"
	CardPower               = "power"
	CardDCPower             = "dc_power"
	CardDCVoltage           = "dc_u"
	CardDCCurrent           = "dc_i"
	CardACVoltage           = "ac_u"
	CardACCurrent           = "ac_i"
	CardACFrequency         = "ac_f"
	CardInverterTemperature = "inverter_temperature"
	CardEnergyToday         = "energy_today"
	CardEnergyLastDay       = "energy_last_day"
	CardEnergyThisMonth     = "energy_this_month"
	CardEnergyLastMonth     = "energy_last_month"
	CardEnergyThisYear      = "energy_this_year"
	CardEnergyLastYear      = "energy_last_year"
	CardEnergyTotal         = "energy_total"
	CardSensorTemperature   = "ds18b20_temperature"
)

// Sink receives card updates.
type Sink interface {
	Update(card string, value any)
	UpdateStatus(card string, value any, state string) error
}

// Card is the last value written to one dashboard card.
type Card struct {
	Name      string    `json:"name"`
	Value     any       `json:"value"`
	State     string    `json:"state,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Board keeps every card in memory, in first-update order.
type Board struct {
	mu    sync.RWMutex
	cards map[string]Card
	order []string
	now   func() time.Time
}

func NewBoard() *Board {
	return &Board{cards: map[string]Card{}, now: time.Now}
}

// Update sets a card value and keeps its state.
func (b *Board) Update(name string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.cards[name]
	b.put(name, value, c.State)
}

// UpdateStatus sets a card value and state.
// Unknown states are rejected and leave the card untouched.
func (b *Board) UpdateStatus(name string, value any, state string) error {
	switch state {
	case status.StateSuccess, status.StateDanger, status.StateWarning, status.StateGeneral, status.StateIdle:
	default:
		return fmt.Errorf("dashboard: card %s: unknown state %q", name, state)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.put(name, value, state)
	return nil
}

func (b *Board) put(name string, value any, state string) {
	if _, ok := b.cards[name]; !ok {
		b.order = append(b.order, name)
	}
	b.cards[name] = Card{Name: name, Value: value, State: state, UpdatedAt: b.now()}
}

func (b *Board) Card(name string) (Card, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.cards[name]
	return c, ok
}

// Cards returns a copy of all cards.
func (b *Board) Cards() []Card {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Card, 0, len(b.order))
	for _, n := range b.order {
		out = append(out, b.cards[n])
	}
	return out
}
