// internal/status/constants.go
package status

// ---- HEALTH CODES ----

// HealthUnknown represents the boot state, before the first cycle completes.
const HealthUnknown uint16 = 0

// HealthOK represents an inverter that answered the last cycle.
const HealthOK uint16 = 1

// HealthError represents an inverter that did not answer the last cycle.
const HealthError uint16 = 2

// ---- LIMITS ----

// SecondsInErrorMax caps the error duration counter. It never wraps.
const SecondsInErrorMax uint16 = 65535

// ---- CARD STATES ----

// Card states understood by the dashboard.
const (
	StateSuccess = "success"
	StateDanger  = "danger"
	StateWarning = "warning"
	StateGeneral = "general"
	StateIdle    = "idle"
)
