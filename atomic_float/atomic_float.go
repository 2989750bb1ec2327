package atomic_float

import (
	"math"
	"sync/atomic"
)

// AtomicFloat64 encapsulates a float64 for non-locking atomic operations.
// The bits are held in an atomic.Uint64, so readers on other goroutines never see a torn
// or stale value. Here it carries the adjust sliders: the controller loop is the only
// writer, and the http handlers read them to render the page.
type AtomicFloat64 struct {
	bits atomic.Uint64
}

// NewAtomicFloat64 encapsulates a float64 for atomic operations.
func NewAtomicFloat64(val float64) *AtomicFloat64 {
	af := &AtomicFloat64{}
	af.AtomicSet(val)
	return af
}

// Atomically read the float64.
func (af *AtomicFloat64) AtomicRead() (value float64) {
	return math.Float64frombits(af.bits.Load())
}

// AtomicSet stores the float64.
func (af *AtomicFloat64) AtomicSet(newVal float64) {
	af.bits.Store(math.Float64bits(newVal))
}
