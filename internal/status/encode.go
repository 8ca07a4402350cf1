// internal/status/encode.go
package status

import "fmt"

// Card is one dashboard status card value.
type Card struct {
	Value string
	State string
}

// Encode converts a Snapshot into the inverter status card.
// The value is the last error code in hex ("0x0" when healthy).
// No IO. No side effects.
func Encode(s Snapshot) Card {
	c := Card{Value: fmt.Sprintf("0x%X", s.LastErrorCode)}

	switch s.Health {
	case HealthOK:
		c.State = StateSuccess
	case HealthError:
		c.State = StateDanger
	default:
		c.State = StateWarning
	}
	return c
}

// EncodeDuration renders the seconds-in-error card.
func EncodeDuration(s Snapshot) Card {
	if s.Health != HealthError {
		return Card{Value: "-", State: StateGeneral}
	}
	return Card{Value: fmt.Sprintf("%ds", s.SecondsInError), State: StateDanger}
}
