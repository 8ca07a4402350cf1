// internal/dashboard/metrics.go
package dashboard

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamzrod/solis-logger/internal/poller"
	"github.com/tamzrod/solis-logger/internal/snapshot"
)

const namespace = "solis"

// ------------------ field gauges ------------------

var fieldMetrics = map[snapshot.Field]struct{ name, help string }{
	snapshot.Power:           {"power_watts", "AC output power (W)"},
	snapshot.DCPower:         {"dc_power_watts", "DC input power reported by the inverter (W)"},
	snapshot.DCVoltage:       {"dc_voltage_volts", "DC input voltage (V)"},
	snapshot.DCCurrent:       {"dc_current_amperes", "DC input current (A)"},
	snapshot.ACVoltage:       {"ac_voltage_volts", "AC output voltage (V)"},
	snapshot.ACCurrent:       {"ac_current_amperes", "AC output current (A)"},
	snapshot.ACFrequency:     {"ac_frequency_hertz", "Grid frequency (Hz)"},
	snapshot.Temperature:     {"inverter_temperature_celsius", "Inverter temperature (°C)"},
	snapshot.EnergyToday:     {"energy_today_kwh", "Energy produced today (kWh)"},
	snapshot.EnergyLastDay:   {"energy_last_day_kwh", "Energy produced yesterday (kWh)"},
	snapshot.EnergyThisMonth: {"energy_this_month_kwh", "Energy produced this month (kWh)"},
	snapshot.EnergyLastMonth: {"energy_last_month_kwh", "Energy produced last month (kWh)"},
	snapshot.EnergyThisYear:  {"energy_this_year_kwh", "Energy produced this year (kWh)"},
	snapshot.EnergyLastYear:  {"energy_last_year_kwh", "Energy produced last year (kWh)"},
	snapshot.TotalEnergy:     {"energy_total_kwh", "Lifetime energy (kWh)"},
}

// Metrics exposes inverter readings and logger health to Prometheus.
// It owns its registry so tests and multiple instances do not collide.
type Metrics struct {
	registry *prometheus.Registry

	fields    map[snapshot.Field]prometheus.Gauge
	reachable prometheus.Gauge
	sensor    prometheus.Gauge
	errorSecs prometheus.Gauge
	cycles    *prometheus.CounterVec
	attempts  *prometheus.CounterVec
	posts     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fields:   map[snapshot.Field]prometheus.Gauge{},
	}

	for f, d := range fieldMetrics {
		m.fields[f] = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      d.name,
			Help:      d.help,
		})
	}

	m.reachable = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "inverter_reachable",
		Help:      "1 if the last poll cycle succeeded",
	})
	m.sensor = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ds18b20_temperature_celsius",
		Help:      "External DS18B20 temperature (°C)",
	})
	m.errorSecs = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "seconds_in_error",
		Help:      "Seconds since the inverter stopped answering",
	})
	m.cycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_cycles_total",
		Help:      "Poll cycles by register group and result",
	}, []string{"group", "result"})
	m.attempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_attempts_total",
		Help:      "Poll attempts by register group",
	}, []string{"group"})
	m.posts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "volkszaehler_posts_total",
		Help:      "Volkszaehler posts by result",
	}, []string{"result"})

	for _, g := range m.fields {
		m.registry.MustRegister(g)
	}
	m.registry.MustRegister(m.reachable, m.sensor, m.errorSecs, m.cycles, m.attempts, m.posts)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ------------------ updates ------------------

func (m *Metrics) ObserveReadings(r snapshot.Readings) {
	for f, g := range m.fields {
		g.Set(r.Get(f))
	}
}

func (m *Metrics) ObserveCycle(res poller.CycleResult) {
	result := "ok"
	if !res.Succeeded {
		result = "failed"
	}
	m.cycles.WithLabelValues(res.Group.String(), result).Inc()
	m.attempts.WithLabelValues(res.Group.String()).Add(float64(res.Attempts))
}

func (m *Metrics) SetReachable(ok bool) {
	if ok {
		m.reachable.Set(1)
		return
	}
	m.reachable.Set(0)
}

func (m *Metrics) SetSecondsInError(s uint16) { m.errorSecs.Set(float64(s)) }

func (m *Metrics) SetSensorTemperature(c float64) { m.sensor.Set(c) }

// ObservePost counts one publish by HTTP status.
func (m *Metrics) ObservePost(status int) {
	switch {
	case status == http.StatusOK:
		m.posts.WithLabelValues("ok").Inc()
	case status < 0:
		m.posts.WithLabelValues("skipped").Inc()
	default:
		m.posts.WithLabelValues("failed").Inc()
	}
}
