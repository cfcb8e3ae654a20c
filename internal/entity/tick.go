// Package entity holds the plain data types shared between ingestion
// collaborators (Kafka, the synthetic generator) and the registry.
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tick is one price observation for a symbol as it arrives off the
// wire, before being narrowed to the float64 the core index stores.
// Decimal is kept at the ingestion boundary for lossless parsing of
// whatever precision the source used; the registry and its index work
// in binary64 only.
type Tick struct {
	ID     uuid.UUID
	Symbol string
	Price  decimal.Decimal
	Time   time.Time
}

// Float64 narrows the tick's price to the binary64 the index stores.
func (t Tick) Float64() float64 {
	f, _ := t.Price.Float64()
	return f
}
