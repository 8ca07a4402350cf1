// internal/writer/mqtt/client.go
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

const (
	payloadOnline  = "online"
	payloadOffline = "offline"
)

// broker is the part of paho.Client the endpoint uses.
type broker interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// EndpointClient is one broker connection.
// It serializes publishes and remembers the last availability so it can
// be re-asserted after a reconnect.
type EndpointClient struct {
	mu      sync.Mutex
	broker  broker
	topic   string
	timeout time.Duration
	online  bool
}

type Config struct {
	Broker   string // tcp://host:1883
	ClientID string
	Username string
	Password string
	Topic    string
	Timeout  time.Duration
	Logger   zerolog.Logger
}

func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Broker == "" {
		return nil, errors.New("writer mqtt: broker required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("writer mqtt: topic required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	ec := &EndpointClient{topic: cfg.Topic, timeout: cfg.Timeout}

	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetWill(ec.statusTopic(), payloadOffline, 0, true)
	opts.OnConnect = func(c paho.Client) {
		cfg.Logger.Info().Str("broker", cfg.Broker).Msg("mqtt connected")

		ec.mu.Lock()
		online := ec.online
		ec.mu.Unlock()

		c.Publish(ec.statusTopic(), 0, true, availability(online))
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		cfg.Logger.Warn().Err(err).Msg("mqtt connection lost")
	}

	c := paho.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("writer mqtt: connect %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("writer mqtt: connect %s: %w", cfg.Broker, err)
	}

	ec.broker = c
	return ec, nil
}

func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broker != nil {
		c.broker.Disconnect(250)
	}
	return nil
}

// PublishAvailability publishes the retained online/offline status.
func (c *EndpointClient) PublishAvailability(online bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.online = online
	return c.publish(c.statusTopic(), true, availability(online))
}

// PublishState publishes all readings as one JSON object.
func (c *EndpointClient) PublishState(values map[string]float64) error {
	payload, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("writer mqtt: encode state: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.publish(c.topic+"/state", false, payload)
}

func (c *EndpointClient) publish(topic string, retained bool, payload interface{}) error {
	token := c.broker.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("writer mqtt: publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("writer mqtt: publish %s: %w", topic, err)
	}
	return nil
}

func (c *EndpointClient) statusTopic() string { return c.topic + "/status" }

func availability(online bool) string {
	if online {
		return payloadOnline
	}
	return payloadOffline
}
