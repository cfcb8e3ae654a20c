// Package registry implements the concurrent symbol registry: a
// sharded map from symbol identifier to its owned price-aggregate
// index, partitioned by a stable FNV hash over a fixed shard count so
// that independent symbols never contend on one lock.
package registry

import (
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/symrange/symrange/internal/errs"
	"github.com/symrange/symrange/internal/priceindex"
)

// DefaultShardCount is the number of independent shards a Registry is
// built with unless overridden by config. It must stay a power of
// two: shard selection uses a bitmask, not a modulo.
const DefaultShardCount = 64

type shard struct {
	mu      sync.Mutex
	indices map[string]*priceindex.Index
}

// Registry owns every symbol's Index and routes append/query calls to
// the right one. A single registry operation acquires at most one
// shard's lock, held for the lookup-or-create plus the delegated index
// operation — so operations on distinct symbols in distinct shards
// never block each other, and operations on the same symbol are
// linearized by the shard lock they share.
type Registry struct {
	shards   []*shard
	mask     uint32
	capacity uint64

	symbolCount atomic.Int64
}

// New builds a Registry with shardCount shards (rounded up to the next
// power of two; a shardCount below 1 is replaced by DefaultShardCount),
// each symbol's Index built for capacity points.
func New(shardCount int, capacity uint64) *Registry {
	if shardCount < 1 {
		shardCount = DefaultShardCount
	}
	n := nextPow2(uint32(shardCount))

	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = &shard{indices: make(map[string]*priceindex.Index)}
	}

	return &Registry{
		shards:   shards,
		mask:     n - 1,
		capacity: capacity,
	}
}

func nextPow2(n uint32) uint32 {
	if n == 0 {
		return 1
	}
	if n&(n-1) == 0 {
		return n
	}
	p := uint32(1)
	for p < n {
		p <<= 1
	}
	return p
}

func (r *Registry) shardFor(symbol string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return r.shards[h.Sum32()&r.mask]
}

// ShardCount reports how many shards this registry was built with.
func (r *Registry) ShardCount() int { return len(r.shards) }

// SymbolCount reports how many distinct symbols have an index, across
// every shard. Safe to call at any time; it never takes a shard lock.
func (r *Registry) SymbolCount() int64 { return r.symbolCount.Load() }

// Record appends values to symbol's index, creating an empty index for
// symbol on first use. Errors from the index are returned unchanged.
func (r *Registry) Record(symbol string, values []float64) error {
	if symbol == "" {
		return errs.New(errs.InvalidValue, "symbol must not be empty")
	}

	s := r.shardFor(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, existed := s.indices[symbol]
	if !existed {
		idx = priceindex.New(r.capacity)
	}

	// Only commit a newly-created index to the map once its first batch
	// has actually applied — a rejected first Append must leave the
	// symbol indistinguishable from one that was never recorded.
	if err := idx.Append(values); err != nil {
		return err
	}

	if !existed {
		s.indices[symbol] = idx
		r.symbolCount.Add(1)
	}

	return nil
}

// Query returns the suffix aggregate for symbol over the most recent
// 10^exponent points. exponent must be in [priceindex.MinExponent,
// priceindex.MaxExponent].
func (r *Registry) Query(symbol string, exponent int) (priceindex.Stats, error) {
	if exponent < priceindex.MinExponent || exponent > priceindex.MaxExponent {
		return priceindex.Stats{}, errs.New(errs.InvalidExponent, "exponent %d outside [%d, %d]", exponent, priceindex.MinExponent, priceindex.MaxExponent)
	}

	s := r.shardFor(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.indices[symbol]
	if !ok {
		return priceindex.Stats{}, errs.New(errs.UnknownSymbol, "no data recorded for symbol %q", symbol)
	}

	k := pow10(exponent)
	return idx.SuffixStats(k)
}

func pow10(exponent int) uint64 {
	k := uint64(1)
	for i := 0; i < exponent; i++ {
		k *= 10
	}
	return k
}
