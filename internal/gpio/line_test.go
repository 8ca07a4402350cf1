// internal/gpio/line_test.go
package gpio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestPin_SetHighLow(t *testing.T) {
	raw := &gpiotest.Pin{N: "GPIO13", Num: 13, L: gpio.High}

	line, err := NewPin(raw)
	require.NoError(t, err)
	defer line.Close()

	assert.Equal(t, gpio.Low, raw.Read(), "opened low")

	require.NoError(t, line.Set(true))
	assert.Equal(t, gpio.High, raw.Read())

	require.NoError(t, line.Set(false))
	assert.Equal(t, gpio.Low, raw.Read())
}

func TestPin_CloseDrivesLow(t *testing.T) {
	raw := &gpiotest.Pin{N: "GPIO4", Num: 4}

	line, err := NewPin(raw)
	require.NoError(t, err)

	require.NoError(t, line.Set(true))
	require.NoError(t, line.Close())
	assert.Equal(t, gpio.Low, raw.Read())

	assert.Error(t, line.Set(true))
	assert.NoError(t, line.Close())
}

func TestNewPin_Nil(t *testing.T) {
	_, err := NewPin(nil)
	assert.Error(t, err)
}

func TestOpen_NegativePin(t *testing.T) {
	pin := -1
	_, err := Open(&pin)
	assert.Error(t, err)
}

func TestOpen_NilPinIsNop(t *testing.T) {
	line, err := Open(nil)
	require.NoError(t, err)
	assert.IsType(t, Nop{}, line)
	assert.NoError(t, line.Set(true))
}
