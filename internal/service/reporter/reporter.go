// Package reporter periodically emits a point-in-time snapshot of the
// registry's size on a fixed interval, for logging and for broadcast
// to websocket subscribers.
package reporter

import (
	"context"
	"fmt"
	"time"

	"github.com/symrange/symrange/internal/event"
	"github.com/symrange/symrange/internal/registry"
	"github.com/symrange/symrange/pkg/ebus"
)

// Reporter is an app.Service emitting an event.RegistrySnapshot every
// interval for as long as ctx stays alive.
type Reporter struct {
	registry *registry.Registry
	eBus     *ebus.EBus
	interval time.Duration
}

func New(reg *registry.Registry, eBus *ebus.EBus, interval time.Duration) *Reporter {
	return &Reporter{registry: reg, eBus: eBus, interval: interval}
}

func (r *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snapshot := event.RegistrySnapshot{
				SymbolCount: r.registry.SymbolCount(),
				ShardCount:  r.registry.ShardCount(),
			}
			if err := r.eBus.Emit(ctx, snapshot); err != nil {
				return fmt.Errorf("reporter: %w", err)
			}
		}
	}
}
