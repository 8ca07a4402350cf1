// internal/writer/types.go
package writer

import (
	"context"
	"time"

	"github.com/tamzrod/solis-logger/internal/poller"
)

// Channels maps each published quantity to a Volkszaehler channel uuid.
// "null" disables the channel.
type Channels struct {
	Power           string
	DCVoltage       string
	DCCurrent       string
	DCPower         string
	EnergyToday     string
	EnergyLastDay   string
	EnergyLastMonth string
	HeartBeat       string
	Temperature     string
}

// Plan is the fully-built publish plan.
// Timestamps are aligned down to the interval of the slot that produced them.
type Plan struct {
	Channels         Channels
	FrequentInterval time.Duration
	SeldomInterval   time.Duration
	SensorInterval   time.Duration
}

// Writer delivers one poll event somewhere.
type Writer interface {
	Write(ctx context.Context, ev poller.Event) error
}

// Special heartbeat values. The counter skips them.
const (
	HeartBeatReset = 1 // logger shutting down
	HeartBeatStart = 2 // logger started with valid time
)
