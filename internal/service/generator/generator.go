// Package generator is a synthetic price feed: a random-walk tick
// source per symbol, useful for demoing the registry without a Kafka
// cluster behind it.
package generator

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/symrange/symrange/internal/entity"
	"github.com/symrange/symrange/internal/event"
	"github.com/symrange/symrange/internal/registry"
	"github.com/symrange/symrange/pkg/ebus"
)

// Generator is an app.Service emitting one synthetic tick per symbol
// on every tick of its interval, recording it straight into the
// registry as if it had arrived over the wire.
type Generator struct {
	registry *registry.Registry
	eBus     *ebus.EBus
	symbols  []string
	interval time.Duration

	prices map[string]float64
}

// New builds a Generator walking a random price for each of symbols,
// starting at 100.0 and stepping every interval.
func New(reg *registry.Registry, eBus *ebus.EBus, interval time.Duration, symbols ...string) *Generator {
	prices := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		prices[s] = 100.0
	}

	return &Generator{
		registry: reg,
		eBus:     eBus,
		symbols:  symbols,
		interval: interval,
		prices:   prices,
	}
}

func (g *Generator) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			for _, symbol := range g.symbols {
				price := g.step(symbol)
				tick := entity.Tick{
					ID:     uuid.New(),
					Symbol: symbol,
					Price:  decimal.NewFromFloat(price),
					Time:   now,
				}

				if err := g.registry.Record(symbol, []float64{price}); err != nil {
					if emitErr := g.eBus.Emit(ctx, event.TickRejected{Symbol: symbol, Reason: err.Error()}); emitErr != nil {
						return emitErr
					}
					continue
				}

				if err := g.eBus.Emit(ctx, event.TickReceived{Tick: tick}); err != nil {
					return err
				}
			}
		}
	}
}

// step advances symbol's random walk and returns the new price,
// clamped above zero since the registry rejects negative values.
func (g *Generator) step(symbol string) float64 {
	delta := (rand.Float64() - 0.5) * 2
	next := g.prices[symbol] + delta
	if next < 0.01 {
		next = 0.01
	}
	g.prices[symbol] = next
	return next
}
