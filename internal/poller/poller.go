// internal/poller/poller.go
package poller

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/solis-logger/internal/gpio"
	"github.com/tamzrod/solis-logger/internal/snapshot"
	"github.com/tamzrod/solis-logger/internal/status"
)

// Client abstracts the Modbus operation the poller needs.
// The poller depends on geometry only.
type Client interface {
	ReadInputRegisters(addr, qty uint16) ([]uint16, error) // FC 4
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	Name string

	// SettleDelay is the idle time between two exchanges on the bus.
	SettleDelay time.Duration

	// RetryInterval is waited between attempts of a failed group.
	RetryInterval time.Duration

	// RetryAttempts is the total attempt budget per group (>= 1).
	RetryAttempts int

	FrequentInterval time.Duration
	SeldomInterval   time.Duration
}

// InverterPoller owns the bus, the snapshot and the reachability state.
// Poll operations are serialized; accessors may be called from any goroutine.
type InverterPoller struct {
	cfg    Config
	client Client

	clock Clock
	log   zerolog.Logger
	busy  gpio.Line

	store *snapshot.Store
	reach *status.Reachability

	mu           sync.Mutex // bus ownership
	lastExchange time.Time
}

// Option customizes an InverterPoller.
type Option func(*InverterPoller)

func WithClock(c Clock) Option { return func(p *InverterPoller) { p.clock = c } }

func WithLogger(l zerolog.Logger) Option { return func(p *InverterPoller) { p.log = l } }

// WithBusyIndicator lights line while a cycle is running.
func WithBusyIndicator(line gpio.Line) Option { return func(p *InverterPoller) { p.busy = line } }

func WithStore(s *snapshot.Store) Option { return func(p *InverterPoller) { p.store = s } }

func WithReachability(r *status.Reachability) Option {
	return func(p *InverterPoller) { p.reach = r }
}

// New creates a poller with immutable config.
func New(cfg Config, client Client, opts ...Option) (*InverterPoller, error) {
	if client == nil {
		return nil, errors.New("poller: client required")
	}
	if cfg.RetryAttempts < 1 {
		return nil, errors.New("poller: retry attempts must be >= 1")
	}
	if cfg.SettleDelay < 0 || cfg.RetryInterval < 0 {
		return nil, errors.New("poller: delays must be >= 0")
	}
	if cfg.FrequentInterval <= 0 || cfg.SeldomInterval <= 0 {
		return nil, errors.New("poller: intervals must be > 0")
	}
	for _, blocks := range groupBlocks {
		for _, b := range blocks {
			if err := validateBlock(b); err != nil {
				return nil, err
			}
		}
	}

	p := &InverterPoller{
		cfg:    cfg,
		client: client,
		clock:  realClock{},
		log:    zerolog.Nop(),
		busy:   gpio.Nop{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.store == nil {
		p.store = snapshot.NewStore()
	}
	if p.reach == nil {
		p.reach = status.NewReachability()
	}
	return p, nil
}

// ---- orchestrated reads ----

// PollAll reads every group in one orchestrated cycle (startup read).
func (p *InverterPoller) PollAll() CycleResult { return p.runGroup(GroupAll) }

// PollPowerGroup reads power, day energy, DC and AC blocks.
func (p *InverterPoller) PollPowerGroup() CycleResult { return p.runGroup(GroupPower) }

// PollDayEnergyGroup reads today / last day energy.
func (p *InverterPoller) PollDayEnergyGroup() CycleResult { return p.runGroup(GroupDayEnergy) }

// PollMonthYearGroup reads total, month and year energy counters.
func (p *InverterPoller) PollMonthYearGroup() CycleResult { return p.runGroup(GroupMonthYear) }

// ---- accessors ----

func (p *InverterPoller) Store() *snapshot.Store { return p.store }

// Snapshot returns a consistent copy of every reading.
func (p *InverterPoller) Snapshot() snapshot.Readings { return p.store.Readings() }

func (p *InverterPoller) Power() float64   { return p.store.Get(snapshot.Power) }
func (p *InverterPoller) DCPower() float64 { return p.store.Get(snapshot.DCPower) }

// DC returns voltage and current of the PV input.
func (p *InverterPoller) DC() (u, i float64) {
	r := p.store.Readings()
	return r.Get(snapshot.DCVoltage), r.Get(snapshot.DCCurrent)
}

// AC returns grid voltage, current and frequency.
func (p *InverterPoller) AC() (u, i, f float64) {
	r := p.store.Readings()
	return r.Get(snapshot.ACVoltage), r.Get(snapshot.ACCurrent), r.Get(snapshot.ACFrequency)
}

func (p *InverterPoller) Temperature() float64     { return p.store.Get(snapshot.Temperature) }
func (p *InverterPoller) EnergyToday() float64     { return p.store.Get(snapshot.EnergyToday) }
func (p *InverterPoller) EnergyLastDay() float64   { return p.store.Get(snapshot.EnergyLastDay) }
func (p *InverterPoller) EnergyThisMonth() float64 { return p.store.Get(snapshot.EnergyThisMonth) }
func (p *InverterPoller) EnergyLastMonth() float64 { return p.store.Get(snapshot.EnergyLastMonth) }
func (p *InverterPoller) EnergyThisYear() float64  { return p.store.Get(snapshot.EnergyThisYear) }
func (p *InverterPoller) EnergyLastYear() float64  { return p.store.Get(snapshot.EnergyLastYear) }
func (p *InverterPoller) TotalEnergy() float64     { return p.store.Get(snapshot.TotalEnergy) }

// IsReachable reports the outcome of the most recent cycle.
func (p *InverterPoller) IsReachable() bool { return p.reach.Current() }

// ReachableLastCycle reports the latched value.
func (p *InverterPoller) ReachableLastCycle() bool { return p.reach.Previous() }

// LatchReachable copies the current flag into the latch.
// Call after consuming IsReachable for edge detection.
func (p *InverterPoller) LatchReachable() { p.reach.LatchPrevious() }

// Reachability exposes the shared state holder.
func (p *InverterPoller) Reachability() *status.Reachability { return p.reach }
