package sensor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodSlave = "72 01 4b 46 7f ff 0e 10 57 : crc=57 YES\n72 01 4b 46 7f ff 0e 10 57 t=23125\n"

func writeDevice(t *testing.T, bus, dev, content string) {
	t.Helper()
	dir := filepath.Join(bus, dev)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "w1_slave"), []byte(content), 0o644))
}

func TestRead_FirstDevice(t *testing.T) {
	bus := t.TempDir()
	writeDevice(t, bus, "28-000000000002", "00 : crc=00 NO\n00 t=0\n")
	writeDevice(t, bus, "28-000000000001", goodSlave)

	s := New(Config{Enabled: true, BusPath: bus})

	assert.Equal(t, 23.125, s.Read())
	last, ok := s.Last()
	assert.True(t, ok)
	assert.Equal(t, 23.125, last)
}

func TestRead_Fallbacks(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s := New(Config{Enabled: false, BusPath: t.TempDir()})
		assert.Equal(t, Disabled, s.Read())
	})

	t.Run("no sensor", func(t *testing.T) {
		s := New(Config{Enabled: true, BusPath: t.TempDir()})
		assert.Equal(t, NoSensor, s.Read())
		_, ok := s.Last()
		assert.False(t, ok)
	})

	t.Run("configured device missing", func(t *testing.T) {
		s := New(Config{Enabled: true, BusPath: t.TempDir(), Device: "28-abc"})
		assert.Equal(t, NoSensor, s.Read())
	})

	t.Run("crc failure", func(t *testing.T) {
		bus := t.TempDir()
		writeDevice(t, bus, "28-abc", "72 01 : crc=57 NO\n72 01 t=23125\n")
		s := New(Config{Enabled: true, BusPath: bus})
		assert.Equal(t, ReadError, s.Read())
	})
}

func TestRead_FailureClearsLast(t *testing.T) {
	bus := t.TempDir()
	writeDevice(t, bus, "28-abc", goodSlave)
	s := New(Config{Enabled: true, BusPath: bus, Device: "28-abc"})

	s.Read()
	writeDevice(t, bus, "28-abc", "garbage")
	assert.Equal(t, ReadError, s.Read())

	_, ok := s.Last()
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    float64
		wantErr error
	}{
		{"positive", goodSlave, 23.125, nil},
		{"negative", "ff : crc=aa YES\nff t=-10250\n", -10.25, nil},
		{"crc", "ff : crc=aa NO\nff t=1000\n", 0, ErrCRC},
		{"short", "ff : crc=aa YES\n", 0, ErrFormat},
		{"no value", "ff : crc=aa YES\nff\n", 0, ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parse([]byte(tt.in))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parse([]byte("ff : crc=aa YES\nff t=85000\n"))
	assert.Error(t, err)
}
