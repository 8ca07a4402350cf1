// internal/writer/mqtt_writer.go
package writer

import (
	"context"
	"fmt"

	"github.com/tamzrod/solis-logger/internal/poller"
)

// stateClient is the part of the MQTT endpoint the writer uses.
type stateClient interface {
	PublishAvailability(online bool) error
	PublishState(values map[string]float64) error
}

// mqttWriter publishes availability when reachability changes
// and the full reading set after every event.
type mqttWriter struct {
	cli       stateClient
	announced bool
	online    bool
}

func NewMQTTWriter(cli stateClient) Writer {
	return &mqttWriter{cli: cli}
}

func (w *mqttWriter) Write(_ context.Context, ev poller.Event) error {
	if !w.announced || w.online != ev.Reachable {
		if err := w.cli.PublishAvailability(ev.Reachable); err != nil {
			return fmt.Errorf("writer: mqtt availability: %w", err)
		}
		w.announced = true
		w.online = ev.Reachable
	}

	state := ev.Readings.Map()
	state["reachable"] = 0
	if ev.Reachable {
		state["reachable"] = 1
	}

	if err := w.cli.PublishState(state); err != nil {
		return fmt.Errorf("writer: mqtt state: %w", err)
	}
	return nil
}
