package homa

//
// Clock: cycle_clock() abstraction
//

import (
	"sync/atomic"

	"github.com/homanet/homa/internal/hrtime"
)

var _ Clock = &HRClock{}

// HRClock is a [Clock] backed by the highest-resolution monotonic source
// the platform build offers (see [hrtime.NowNanos]), scaled to the
// configured CPU frequency so that its output is comparable to the
// cycle-denominated budgets produced by [Config.Derive].
//
// The zero value is not valid; use [NewHRClock].
type HRClock struct {
	// cpuKhz is the CPU frequency used to convert nanoseconds to cycles.
	cpuKhz int64
}

// NewHRClock creates a new [HRClock] for the given CPU frequency, in kHz.
func NewHRClock(cpuKhz int64) *HRClock {
	return &HRClock{cpuKhz: cpuKhz}
}

// Cycles implements [Clock].
func (c *HRClock) Cycles() uint64 {
	return uint64(hrtime.NowNanos()) * uint64(c.cpuKhz) / 1_000_000
}

var _ Clock = &ManualClock{}

// ManualClock is a [Clock] test double whose value is set explicitly,
// following the same swappable-collaborator pattern the teacher uses for
// [LinkFwdRNG]: production code wires a real clock, tests wire this one.
type ManualClock struct {
	now atomic.Uint64
}

// NewManualClock creates a [ManualClock] starting at the given cycle count.
func NewManualClock(start uint64) *ManualClock {
	mc := &ManualClock{}
	mc.now.Store(start)
	return mc
}

// Cycles implements [Clock].
func (c *ManualClock) Cycles() uint64 {
	return c.now.Load()
}

// Set sets the clock's current cycle count.
func (c *ManualClock) Set(value uint64) {
	c.now.Store(value)
}

// Advance adds delta cycles to the clock's current value and returns the
// new value.
func (c *ManualClock) Advance(delta uint64) uint64 {
	return c.now.Add(delta)
}
