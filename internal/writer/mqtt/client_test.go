// internal/writer/mqtt/client_test.go
package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fake broker ----

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type message struct {
	topic    string
	retained bool
	payload  interface{}
}

type fakeBroker struct {
	msgs         []message
	fail         error
	disconnected bool
}

func (b *fakeBroker) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	b.msgs = append(b.msgs, message{topic: topic, retained: retained, payload: payload})
	return doneToken{err: b.fail}
}

func (b *fakeBroker) Disconnect(uint) { b.disconnected = true }

func newTestClient(b *fakeBroker) *EndpointClient {
	return &EndpointClient{broker: b, topic: "solis", timeout: time.Second}
}

// ---- tests ----

func TestPublishAvailability_Retained(t *testing.T) {
	b := &fakeBroker{}
	c := newTestClient(b)

	require.NoError(t, c.PublishAvailability(true))
	require.NoError(t, c.PublishAvailability(false))

	require.Len(t, b.msgs, 2)
	assert.Equal(t, message{topic: "solis/status", retained: true, payload: "online"}, b.msgs[0])
	assert.Equal(t, "offline", b.msgs[1].payload)
}

func TestPublishState_JSON(t *testing.T) {
	b := &fakeBroker{}
	c := newTestClient(b)

	require.NoError(t, c.PublishState(map[string]float64{"power": 1500, "dc_u": 345.6}))

	require.Len(t, b.msgs, 1)
	assert.Equal(t, "solis/state", b.msgs[0].topic)
	assert.False(t, b.msgs[0].retained)

	var got map[string]float64
	require.NoError(t, json.Unmarshal(b.msgs[0].payload.([]byte), &got))
	assert.Equal(t, 1500.0, got["power"])
}

func TestPublish_Error(t *testing.T) {
	b := &fakeBroker{fail: errors.New("not connected")}
	c := newTestClient(b)

	err := c.PublishAvailability(true)
	assert.ErrorContains(t, err, "not connected")
}

func TestClose_Disconnects(t *testing.T) {
	b := &fakeBroker{}
	require.NoError(t, newTestClient(b).Close())
	assert.True(t, b.disconnected)
}

func TestNewEndpointClient_Validation(t *testing.T) {
	_, err := NewEndpointClient(Config{})
	assert.Error(t, err)

	_, err = NewEndpointClient(Config{Broker: "tcp://localhost:1883"})
	assert.Error(t, err)
}
