// Package event defines the ebus event types the ingestion
// collaborators and the registry-size reporter publish.
package event

import "github.com/symrange/symrange/internal/entity"

// TickReceived fires whenever a tick from the Kafka consumer or the
// synthetic generator has been recorded into the registry. Batches
// recorded through the HTTP /add_batch/ endpoint do not emit it.
type TickReceived struct {
	entity.Tick
}

// TickRejected fires when a tick failed validation at the registry
// boundary and was not recorded.
type TickRejected struct {
	Symbol string
	Reason string
}

// RegistrySnapshot fires on the reporter's schedule with a point-in-time
// view of registry size, for logging and for broadcasting to websocket
// subscribers.
type RegistrySnapshot struct {
	SymbolCount int64
	ShardCount  int
}
