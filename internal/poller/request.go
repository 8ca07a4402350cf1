// internal/poller/request.go
package poller

import (
	"fmt"

	"github.com/tamzrod/solis-logger/internal/snapshot"
)

// readBlock issues one FC 0x04 exchange and decodes it.
// Caller must hold p.mu.
func (p *InverterPoller) readBlock(spec BlockSpec) (map[snapshot.Field]float64, error) {
	if err := validateBlock(spec); err != nil {
		return nil, err
	}

	p.settle()

	words, err := p.client.ReadInputRegisters(spec.Start, spec.Count)
	p.lastExchange = p.clock.Now()
	if err != nil {
		return nil, fmt.Errorf("block %s (start=%d count=%d): %w", spec.Name, spec.Start, spec.Count, err)
	}

	return decodeBlock(spec, words)
}

// settle keeps the bus idle for SettleDelay since the previous exchange.
func (p *InverterPoller) settle() {
	if p.lastExchange.IsZero() || p.cfg.SettleDelay <= 0 {
		return
	}
	wait := p.cfg.SettleDelay - p.clock.Now().Sub(p.lastExchange)
	if wait > 0 {
		p.clock.Sleep(wait)
	}
}
