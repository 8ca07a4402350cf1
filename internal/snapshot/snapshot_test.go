// internal/snapshot/snapshot_test.go
package snapshot

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestField_Instantaneous(t *testing.T) {
	live := []Field{Power, DCPower, DCVoltage, DCCurrent, ACVoltage, ACCurrent, ACFrequency, Temperature}
	for _, f := range live {
		assert.True(t, f.Instantaneous(), f.String())
	}

	counters := []Field{EnergyToday, EnergyLastDay, EnergyThisMonth, EnergyLastMonth, EnergyThisYear, EnergyLastYear, TotalEnergy}
	for _, f := range counters {
		assert.False(t, f.Instantaneous(), f.String())
	}

	assert.Len(t, Fields(), len(live)+len(counters))
}

func TestStore_CommitAndZero(t *testing.T) {
	s := NewStore()
	at := time.Unix(1700000000, 0)

	s.Commit(map[Field]float64{Power: 1200, EnergyToday: 12.3}, nil, at)
	assert.Equal(t, 1200.0, s.Get(Power))
	assert.Equal(t, 12.3, s.Get(EnergyToday))
	assert.Equal(t, at, s.UpdatedAt())

	s.Commit(nil, []Field{Power}, at.Add(time.Minute))
	assert.Zero(t, s.Get(Power))
	assert.Equal(t, 12.3, s.Get(EnergyToday))
}

func TestStore_ReadingsIsCopy(t *testing.T) {
	s := NewStore()
	s.Commit(map[Field]float64{ACFrequency: 50}, nil, time.Now())

	r := s.Readings()
	r.Set(ACFrequency, 0)

	assert.Equal(t, 50.0, s.Get(ACFrequency))
	assert.Equal(t, 50.0, s.Readings().Map()["ac_f"])
}

func TestStore_ConcurrentReaders(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Readings()
			}
		}()
	}
	for j := 0; j < 100; j++ {
		s.Commit(map[Field]float64{Power: float64(j)}, nil, time.Now())
	}
	wg.Wait()

	assert.Equal(t, 99.0, s.Get(Power))
}
