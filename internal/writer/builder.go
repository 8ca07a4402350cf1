// internal/writer/builder.go
package writer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	cfg "github.com/tamzrod/solis-logger/internal/config"
	"github.com/tamzrod/solis-logger/internal/poller"
	"github.com/tamzrod/solis-logger/internal/writer/mqtt"
	"github.com/tamzrod/solis-logger/internal/writer/volkszaehler"
)

// BuildPlan converts the config into a publish Plan.
// Assumes config has already been normalized and validated.
func BuildPlan(c cfg.Config) Plan {
	ch := c.Volkszaehler.Channels
	return Plan{
		Channels: Channels{
			Power:           ch.Power,
			DCVoltage:       ch.DCVoltage,
			DCCurrent:       ch.DCCurrent,
			DCPower:         ch.DCPower,
			EnergyToday:     ch.EnergyToday,
			EnergyLastDay:   ch.EnergyLastDay,
			EnergyLastMonth: ch.EnergyLastMonth,
			HeartBeat:       ch.HeartBeat,
			Temperature:     ch.Temperature,
		},
		FrequentInterval: time.Duration(c.Inverter.Poll.FrequentIntervalS) * time.Second,
		SeldomInterval:   time.Duration(c.Inverter.Poll.SeldomIntervalS) * time.Second,
		SensorInterval:   time.Duration(c.Sensor.IntervalS) * time.Second,
	}
}

// nullPoster stands in when no server is configured; every channel is null then.
type nullPoster struct{}

func (nullPoster) Post(context.Context, string, time.Time, float64) (int, error) {
	return volkszaehler.NoSendStatus, nil
}

// Clients are the outbound connections the writers use.
type Clients struct {
	Volkszaehler poster
	MQTT         *mqtt.EndpointClient // nil => disabled
}

// BuildClients creates the Volkszaehler client and, if configured,
// the MQTT connection. The closer releases them.
func BuildClients(c cfg.Config, log zerolog.Logger) (Clients, func() error, error) {
	var out Clients

	if c.Volkszaehler.Server == "" {
		out.Volkszaehler = nullPoster{}
	} else {
		vz, err := volkszaehler.NewClient(volkszaehler.Config{
			Server:     c.Volkszaehler.Server,
			Middleware: c.Volkszaehler.Middleware,
			Timeout:    time.Duration(c.Volkszaehler.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return Clients{}, nil, err
		}
		out.Volkszaehler = vz
	}

	closeAll := func() error { return nil }

	if c.MQTT.Broker != "" {
		m, err := mqtt.NewEndpointClient(mqtt.Config{
			Broker:   c.MQTT.Broker,
			ClientID: c.MQTT.ClientID,
			Username: c.MQTT.Username,
			Password: c.MQTT.Password,
			Topic:    c.MQTT.Topic,
			Timeout:  time.Duration(c.Volkszaehler.TimeoutMs) * time.Millisecond,
			Logger:   log.With().Str("component", "mqtt").Logger(),
		})
		if err != nil {
			return Clients{}, nil, err
		}
		out.MQTT = m
		closeAll = m.Close
	}

	return out, closeAll, nil
}

// multi fans one event out to several writers.
type multi []Writer

// Multi returns a Writer that calls every w in order and joins the errors.
func Multi(w ...Writer) Writer { return multi(w) }

func (m multi) Write(ctx context.Context, ev poller.Event) error {
	var errs []string
	for _, w := range m {
		if err := w.Write(ctx, ev); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}
