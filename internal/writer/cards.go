// internal/writer/cards.go
package writer

import (
	"context"
	"strconv"

	"github.com/tamzrod/solis-logger/internal/dashboard"
	"github.com/tamzrod/solis-logger/internal/poller"
	"github.com/tamzrod/solis-logger/internal/snapshot"
)

// cardWriter copies event readings onto dashboard cards.
// Live values are always shown (zeros while unreachable).
// Energy cards change only when the group that reads them succeeded.
type cardWriter struct {
	sink dashboard.Sink
	plan Plan
}

func NewCardWriter(plan Plan, sink dashboard.Sink) Writer {
	return &cardWriter{sink: sink, plan: plan}
}

var fieldCards = map[snapshot.Field]string{
	snapshot.Power:           dashboard.CardPower,
	snapshot.DCVoltage:       dashboard.CardDCVoltage,
	snapshot.DCCurrent:       dashboard.CardDCCurrent,
	snapshot.ACVoltage:       dashboard.CardACVoltage,
	snapshot.ACCurrent:       dashboard.CardACCurrent,
	snapshot.ACFrequency:     dashboard.CardACFrequency,
	snapshot.Temperature:     dashboard.CardInverterTemperature,
	snapshot.EnergyToday:     dashboard.CardEnergyToday,
	snapshot.EnergyLastDay:   dashboard.CardEnergyLastDay,
	snapshot.EnergyThisMonth: dashboard.CardEnergyThisMonth,
	snapshot.EnergyLastMonth: dashboard.CardEnergyLastMonth,
	snapshot.EnergyThisYear:  dashboard.CardEnergyThisYear,
	snapshot.EnergyLastYear:  dashboard.CardEnergyLastYear,
	snapshot.TotalEnergy:     dashboard.CardEnergyTotal,
}

func (w *cardWriter) Write(_ context.Context, ev poller.Event) error {
	r := ev.Readings

	interval := w.plan.FrequentInterval
	if ev.Kind == poller.EventSeldom {
		interval = w.plan.SeldomInterval
	}
	w.sink.Update(dashboard.CardTime, ev.At.Format("2006-01-02 15:04:05"))
	w.sink.Update(dashboard.CardEpochTime, strconv.FormatInt(align(ev.At, interval).Unix(), 10))

	for _, res := range ev.Results {
		for _, b := range poller.Blocks(res.Group) {
			for _, fs := range b.Fields {
				if !fs.Field.Instantaneous() && !res.Succeeded {
					continue
				}
				if card, ok := fieldCards[fs.Field]; ok {
					w.sink.Update(card, r.Get(fs.Field))
				}
			}
		}

		if res.Group == poller.GroupPower || res.Group == poller.GroupAll {
			// Shown as u*i, the same figure that is posted.
			w.sink.Update(dashboard.CardDCPower, r.Get(snapshot.DCVoltage)*r.Get(snapshot.DCCurrent))
		}
	}
	return nil
}
