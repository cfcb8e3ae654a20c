// Package priceindex implements the per-symbol range-aggregate index:
// an append-only store of non-negative binary64 price observations
// that answers min/max/mean/variance queries over the most recent k
// points in O(log C) combine-steps, C being the index's fixed
// capacity.
//
// The structure is four parallel iterative segment trees sharing one
// leaf layout — min, max, sum, and sum-of-squares — laid out as
// implicit arrays (parent = i/2, children = 2i, 2i+1) so appends and
// queries walk the tree with integer shifts instead of pointers.
package priceindex

import (
	"math"
	"math/bits"

	"github.com/symrange/symrange/internal/errs"
)

// DefaultCapacity is the point cap a production symbol index is built
// for: 10^8 observations.
const DefaultCapacity uint64 = 100_000_000

// MinExponent and MaxExponent bound the suffix-window exponents a
// query may name: a window is k = 10^e points, e in [MinExponent,
// MaxExponent].
const (
	MinExponent = 1
	MaxExponent = 8
)

// Stats is the result of a SuffixStats query.
type Stats struct {
	Min      float64
	Max      float64
	Last     float64
	Mean     float64
	Variance float64
}

// Index is a fixed-capacity, append-only aggregate store for one
// symbol's price stream.
//
// Index is NOT safe for concurrent use on its own: Append and
// SuffixStats mutate/read shared slices without internal locking. The
// Registry serializes all operations on a given symbol's Index behind
// its shard lock, which is the only synchronization this type needs
// or gets (see design notes on per-symbol lock granularity).
type Index struct {
	capacity uint64
	size     uint64 // L: smallest power of two >= capacity

	n    uint64
	last float64

	treeMin   []float64
	treeMax   []float64
	treeSum   []float64
	treeSumSq []float64
}

// New returns an empty Index with room for capacity points. The four
// trees are not allocated until the first successful Append — eager
// allocation of a 10^8-point tree (~2GiB per tree, ~8GiB total) is the
// production default only once a symbol actually receives data; a
// symbol that's looked up but never appended to costs nothing.
func New(capacity uint64) *Index {
	if capacity == 0 {
		panic("priceindex: capacity must be > 0")
	}
	return &Index{
		capacity: capacity,
		size:     nextPow2(capacity),
	}
}

func nextPow2(n uint64) uint64 {
	if n&(n-1) == 0 {
		return n
	}
	return 1 << bits.Len64(n)
}

func (ix *Index) allocate() {
	if ix.treeMin != nil {
		return
	}
	l := ix.size
	ix.treeMin = make([]float64, 2*l)
	ix.treeMax = make([]float64, 2*l)
	ix.treeSum = make([]float64, 2*l)
	ix.treeSumSq = make([]float64, 2*l)
	for i := range ix.treeMin {
		ix.treeMin[i] = math.Inf(1)
		ix.treeMax[i] = math.Inf(-1)
	}
	// treeSum and treeSumSq are already zero-valued, the additive identity.
}

// N reports how many points have been appended so far.
func (ix *Index) N() uint64 { return ix.n }

// Capacity reports the fixed capacity this index was built for.
func (ix *Index) Capacity() uint64 { return ix.capacity }

// Append adds values to the end of the stream, all-or-nothing: if any
// value is invalid or the batch would overflow capacity, the index is
// left completely unchanged.
func (ix *Index) Append(values []float64) error {
	if len(values) == 0 {
		return errs.New(errs.EmptyBatch, "append called with an empty batch")
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return errs.New(errs.InvalidValue, "value %v is not a finite non-negative number", v)
		}
	}
	if uint64(len(values)) > ix.capacity-ix.n {
		return errs.New(errs.CapacityExceeded, "index holds %d/%d points, batch of %d would overflow", ix.n, ix.capacity, len(values))
	}

	ix.allocate()
	l := ix.size

	for _, v := range values {
		leaf := l + ix.n
		ix.treeMin[leaf] = v
		ix.treeMax[leaf] = v
		ix.treeSum[leaf] = v
		ix.treeSumSq[leaf] = v * v

		for p := leaf >> 1; p >= 1; p >>= 1 {
			lc, rc := 2*p, 2*p+1
			ix.treeMin[p] = math.Min(ix.treeMin[lc], ix.treeMin[rc])
			ix.treeMax[p] = math.Max(ix.treeMax[lc], ix.treeMax[rc])
			ix.treeSum[p] = ix.treeSum[lc] + ix.treeSum[rc]
			ix.treeSumSq[p] = ix.treeSumSq[lc] + ix.treeSumSq[rc]
		}

		ix.n++
		ix.last = v
	}

	return nil
}

// SuffixStats returns the aggregate statistics over the last k points
// appended, i.e. the logical range [n-k, n). Requires 0 < k <= n.
func (ix *Index) SuffixStats(k uint64) (Stats, error) {
	if k == 0 || k > ix.n {
		return Stats{}, errs.New(errs.InsufficientData, "requested a window of %d points, only %d available", k, ix.n)
	}

	l := ix.size + (ix.n - k)
	r := ix.size + ix.n - 1

	accMin := math.Inf(1)
	accMax := math.Inf(-1)
	var accSum, accSumSq float64

	fold := func(i uint64) {
		if ix.treeMin[i] < accMin {
			accMin = ix.treeMin[i]
		}
		if ix.treeMax[i] > accMax {
			accMax = ix.treeMax[i]
		}
		accSum += ix.treeSum[i]
		accSumSq += ix.treeSumSq[i]
	}

	for l <= r {
		if l%2 == 1 { // l is a right child
			fold(l)
			l++
		}
		if r%2 == 0 { // r is a left child
			fold(r)
			r--
		}
		l >>= 1
		r >>= 1
	}

	kf := float64(k)
	mean := accSum / kf
	variance := accSumSq/kf - mean*mean
	if variance < 0 {
		// cancellation in the one-pass formula can push this
		// slightly negative; population variance is never negative.
		variance = 0
	}

	return Stats{
		Min:      accMin,
		Max:      accMax,
		Last:     ix.last,
		Mean:     mean,
		Variance: variance,
	}, nil
}
