package dashboard

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/solis-logger/internal/poller"
	"github.com/tamzrod/solis-logger/internal/snapshot"
)

// ---- fakes ----

type fakeSource struct {
	r         snapshot.Readings
	reachable bool
}

func (f *fakeSource) Snapshot() snapshot.Readings { return f.r }
func (f *fakeSource) IsReachable() bool           { return f.reachable }

type fakeSensor struct {
	t  float64
	ok bool
}

func (f fakeSensor) Last() (float64, bool) { return f.t, f.ok }

func newTestServer(t *testing.T, sensor SensorSource) (*httptest.Server, *fakeSource, *Board, *Metrics) {
	t.Helper()

	src := &fakeSource{reachable: true}
	src.r.Set(snapshot.Power, 1234)
	src.r.Set(snapshot.EnergyToday, 12.3)
	src.r.Set(snapshot.DCVoltage, 345.6)
	src.r.Set(snapshot.DCCurrent, 3.5)
	src.r.Set(snapshot.ACFrequency, 50)

	board := NewBoard()
	metrics := NewMetrics()

	srv := NewServer(":0", src, board, metrics, sensor, zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, src, board, metrics
}

func getJSON(t *testing.T, url string, into interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	return resp.StatusCode
}

// ---- tests ----

func TestServer_PowerJSON(t *testing.T) {
	ts, _, _, _ := newTestServer(t, nil)

	var got map[string]interface{}
	code := getJSON(t, ts.URL+"/api/power.json", &got)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]interface{}{
		"power":       1234.0,
		"energyToday": 12.3,
		"isOnline":    true,
	}, got)
}

func TestServer_AllJSON_IncludesSensorWhenPresent(t *testing.T) {
	ts, src, _, _ := newTestServer(t, fakeSensor{t: 21.5, ok: true})
	src.reachable = false

	var got map[string]interface{}
	getJSON(t, ts.URL+"/api/all.json", &got)

	assert.Equal(t, false, got["isOnline"])
	assert.Equal(t, 345.6, got["dc_u"])
	assert.Equal(t, 3.5, got["dc_i"])
	assert.Equal(t, 50.0, got["ac_f"])
	assert.Equal(t, 21.5, got["ds18b20Temperature"])
}

func TestServer_AllJSON_OmitsSensorWithoutReading(t *testing.T) {
	ts, _, _, _ := newTestServer(t, fakeSensor{})

	var got map[string]interface{}
	getJSON(t, ts.URL+"/api/all.json", &got)

	_, ok := got["ds18b20Temperature"]
	assert.False(t, ok)
}

func TestServer_Cards(t *testing.T) {
	ts, _, board, _ := newTestServer(t, nil)

	board.Update(CardPower, 1234.0)
	require.NoError(t, board.UpdateStatus(CardInverterStatus, "0xE2", "danger"))

	var list struct {
		Cards []Card `json:"cards"`
	}
	getJSON(t, ts.URL+"/api/cards", &list)
	require.Len(t, list.Cards, 2)
	assert.Equal(t, CardPower, list.Cards[0].Name)
	assert.Equal(t, "danger", list.Cards[1].State)

	var one Card
	code := getJSON(t, ts.URL+"/api/cards/"+CardInverterStatus, &one)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "0xE2", one.Value)

	var missing map[string]string
	code = getJSON(t, ts.URL+"/api/cards/nope", &missing)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "card not found", missing["error"])
}

func TestServer_Metrics(t *testing.T) {
	ts, src, _, metrics := newTestServer(t, nil)

	metrics.ObserveReadings(src.r)
	metrics.SetReachable(true)
	metrics.ObserveCycle(poller.CycleResult{Group: poller.GroupPower, Attempts: 2})

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, "solis_power_watts 1234"))
	assert.True(t, strings.Contains(text, "solis_inverter_reachable 1"))
	assert.True(t, strings.Contains(text, `solis_poll_cycles_total{group="power",result="failed"} 1`))
	assert.True(t, strings.Contains(text, `solis_poll_attempts_total{group="power"} 2`))
}

func TestMetrics_ObservePost(t *testing.T) {
	m := NewMetrics()
	m.ObservePost(200)
	m.ObservePost(500)
	m.ObservePost(-99)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	got := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "solis_volkszaehler_posts_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			got[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{"ok": 1, "failed": 1, "skipped": 1}, got)
}

func TestBoard_UpdateKeepsStateAndRejectsUnknownState(t *testing.T) {
	b := NewBoard()
	b.now = func() time.Time { return time.Unix(100, 0) }

	require.NoError(t, b.UpdateStatus(CardLoopStatus, "waiting", "success"))
	b.Update(CardLoopStatus, "waiting in loop, #3")

	c, ok := b.Card(CardLoopStatus)
	require.True(t, ok)
	assert.Equal(t, "success", c.State)
	assert.Equal(t, "waiting in loop, #3", c.Value)
	assert.Equal(t, time.Unix(100, 0), c.UpdatedAt)

	assert.Error(t, b.UpdateStatus(CardLoopStatus, "x", "purple"))
	c, _ = b.Card(CardLoopStatus)
	assert.Equal(t, "waiting in loop, #3", c.Value)
}
