// internal/config/config.go
package config

type Config struct {
	Logger       LoggerConfig       `yaml:"logger"`
	Inverter     InverterConfig     `yaml:"inverter"`
	Volkszaehler VolkszaehlerConfig `yaml:"volkszaehler"`
	Dashboard    DashboardConfig    `yaml:"dashboard"`
	MQTT         MQTTConfig         `yaml:"mqtt"`
	Sensor       SensorConfig       `yaml:"sensor"`
	LEDs         LEDConfig          `yaml:"leds"`
}

// ---- LOGGER ----

type LoggerConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// ---- INVERTER ----

type InverterConfig struct {
	Name    string       `yaml:"name"`
	SlaveID uint8        `yaml:"slave_id"`
	Emulate bool         `yaml:"emulate"`
	Serial  SerialConfig `yaml:"serial"`
	Poll    PollConfig   `yaml:"poll"`

	// DirectionGPIO drives the transceiver DE/RE pins.
	// nil => adapter switches direction itself (or kernel RS-485 mode).
	DirectionGPIO *int `yaml:"direction_gpio"`
}

// ---- SERIAL ----

type SerialConfig struct {
	Device    string `yaml:"device"`
	BaudRate  int    `yaml:"baud_rate"`
	DataBits  int    `yaml:"data_bits"`
	Parity    string `yaml:"parity"`
	StopBits  int    `yaml:"stop_bits"`
	TimeoutMs int    `yaml:"timeout_ms"`

	// KernelRS485 enables TIOCSRS485 RTS switching in the driver.
	KernelRS485 bool `yaml:"kernel_rs485"`
}

// ---- POLL ----

type PollConfig struct {
	SettleMs          int `yaml:"settle_ms"`
	RetryIntervalMs   int `yaml:"retry_interval_ms"`
	RetryAttempts     int `yaml:"retry_attempts"`
	FrequentIntervalS int `yaml:"frequent_interval_s"`
	SeldomIntervalS   int `yaml:"seldom_interval_s"`
}

// ---- VOLKSZAEHLER ----

type VolkszaehlerConfig struct {
	Server     string         `yaml:"server"`
	Middleware string         `yaml:"middleware"`
	TimeoutMs  int            `yaml:"timeout_ms"`
	HeartbeatS int            `yaml:"heartbeat_s"`
	Channels   ChannelsConfig `yaml:"channels"`
}

// ChannelsConfig holds one channel UUID per published quantity.
// The literal "null" disables a channel.
type ChannelsConfig struct {
	Power           string `yaml:"power"`
	DCVoltage       string `yaml:"dc_u"`
	DCCurrent       string `yaml:"dc_i"`
	DCPower         string `yaml:"dc_power"`
	EnergyToday     string `yaml:"energy_today"`
	EnergyLastDay   string `yaml:"energy_last_day"`
	EnergyLastMonth string `yaml:"energy_last_month"`
	HeartBeat       string `yaml:"heart_beat"`
	Temperature     string `yaml:"temperature"`
}

// ---- DASHBOARD ----

type DashboardConfig struct {
	Listen string `yaml:"listen"`
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker   string `yaml:"broker"` // empty => disabled
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
}

// ---- SENSOR ----

type SensorConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Device    string `yaml:"device"` // empty => first 28-* device
	BusPath   string `yaml:"bus_path"`
	IntervalS int    `yaml:"interval_s"`
}

// ---- LEDS ----

type LEDConfig struct {
	BusyGPIO  *int `yaml:"busy_gpio"`
	ErrorGPIO *int `yaml:"error_gpio"`
}
