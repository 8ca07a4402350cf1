// internal/config/normalize.go
package config

// Defaults follow the logger firmware this daemon replaces.
const (
	DefaultSlaveID           = 1
	DefaultBaudRate          = 9600
	DefaultDataBits          = 8
	DefaultParity            = "N"
	DefaultStopBits          = 1
	DefaultSerialTimeoutMs   = 1000
	DefaultSettleMs          = 2550
	DefaultRetryIntervalMs   = 4000
	DefaultRetryAttempts     = 2
	DefaultFrequentIntervalS = 60
	DefaultSeldomIntervalS   = 1200
	DefaultMiddleware        = "middleware.php"
	DefaultHTTPTimeoutMs     = 5000
	DefaultHeartbeatS        = 60
	DefaultDashboardListen   = ":8080"
	DefaultMQTTTopic         = "solis"
	DefaultMQTTClientID      = "solis-logger"
	DefaultSensorBusPath     = "/sys/bus/w1/devices"
	DefaultSensorIntervalS   = 300
	DefaultInverterName      = "solis"

	// NullChannel disables publishing for a channel.
	NullChannel = "null"
)

// Normalize fills zero values with defaults.
// It is allowed to mutate configuration.
// It MUST be called before Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}

	// ------------------------------------------------------------
	// INVERTER
	// ------------------------------------------------------------

	inv := &cfg.Inverter
	if inv.Name == "" {
		inv.Name = DefaultInverterName
	}
	if inv.SlaveID == 0 {
		inv.SlaveID = DefaultSlaveID
	}

	s := &inv.Serial
	if s.BaudRate == 0 {
		s.BaudRate = DefaultBaudRate
	}
	if s.DataBits == 0 {
		s.DataBits = DefaultDataBits
	}
	if s.Parity == "" {
		s.Parity = DefaultParity
	}
	if s.StopBits == 0 {
		s.StopBits = DefaultStopBits
	}
	if s.TimeoutMs == 0 {
		s.TimeoutMs = DefaultSerialTimeoutMs
	}

	p := &inv.Poll
	if p.SettleMs == 0 {
		p.SettleMs = DefaultSettleMs
	}
	if p.RetryIntervalMs == 0 {
		p.RetryIntervalMs = DefaultRetryIntervalMs
	}
	if p.RetryAttempts == 0 {
		p.RetryAttempts = DefaultRetryAttempts
	}
	if p.FrequentIntervalS == 0 {
		p.FrequentIntervalS = DefaultFrequentIntervalS
	}
	if p.SeldomIntervalS == 0 {
		p.SeldomIntervalS = DefaultSeldomIntervalS
	}

	// ------------------------------------------------------------
	// VOLKSZAEHLER
	// ------------------------------------------------------------

	vz := &cfg.Volkszaehler
	if vz.Middleware == "" {
		vz.Middleware = DefaultMiddleware
	}
	if vz.TimeoutMs == 0 {
		vz.TimeoutMs = DefaultHTTPTimeoutMs
	}
	if vz.HeartbeatS == 0 {
		vz.HeartbeatS = DefaultHeartbeatS
	}

	// Missing channels are disabled, not errors.
	for _, ch := range vz.Channels.all() {
		if *ch == "" {
			*ch = NullChannel
		}
	}

	// ------------------------------------------------------------
	// OUTER SURFACES
	// ------------------------------------------------------------

	if cfg.Dashboard.Listen == "" {
		cfg.Dashboard.Listen = DefaultDashboardListen
	}
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = DefaultMQTTTopic
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = DefaultMQTTClientID
	}
	if cfg.Sensor.BusPath == "" {
		cfg.Sensor.BusPath = DefaultSensorBusPath
	}
	if cfg.Sensor.IntervalS == 0 {
		cfg.Sensor.IntervalS = DefaultSensorIntervalS
	}
}

// all returns pointers to every channel id, in a stable order.
func (c *ChannelsConfig) all() []*string {
	return []*string{
		&c.Power,
		&c.DCVoltage,
		&c.DCCurrent,
		&c.DCPower,
		&c.EnergyToday,
		&c.EnergyLastDay,
		&c.EnergyLastMonth,
		&c.HeartBeat,
		&c.Temperature,
	}
}
