package homa

//
// Configuration and derived rate constants
//

import "sync/atomic"

// Config holds the tunables that, in the kernel module this engine is
// modeled on, arrive via sysctl. All fields are read at tuning time, never
// per packet; per-packet code reads the derived [RateConstants] produced
// by [Config.Derive] instead.
type Config struct {
	// RTTBytes is the OPTIONAL default unscheduled byte allowance used
	// when packetizing a message (rtt_bytes).
	RTTBytes int

	// LinkMbps is the MANDATORY nominal link speed, in megabits/second.
	LinkMbps int64

	// MaxNICQueueNs is the MANDATORY maximum amount of queued transmit
	// work, in nanoseconds, the engine tolerates before throttling a
	// message into the pacer.
	MaxNICQueueNs int64

	// ThrottleMinBytes is the OPTIONAL throttling threshold: a message
	// becomes eligible for throttling only while it has more than this
	// many bytes remaining; smaller messages are always sent immediately.
	ThrottleMinBytes int

	// CPUKhz is the MANDATORY CPU frequency, in kHz, used to convert
	// between nanoseconds and cycles.
	CPUKhz int64

	// DontThrottle is the OPTIONAL flag that disables the pacer
	// entirely: when set, [Engine.TransmitReady] never enqueues
	// into the pacer regardless of link budget.
	DontThrottle bool

	// rates is the atomically-swapped pair of derived rate constants.
	rates atomic.Pointer[RateConstants]
}

// RateConstants are the values [Config.Derive] recomputes whenever the
// link speed, NIC queue budget, or CPU frequency change. Grouping them
// into one struct swapped via a single atomic pointer store means readers
// always observe either the entirely-old or entirely-new pair, never a
// torn mix of the two.
type RateConstants struct {
	// CyclesPerKbyte is (8 * cpu_khz) / link_mbps.
	CyclesPerKbyte uint64

	// MaxNICQueueCycles is (max_nic_queue_ns * cpu_khz) / 1_000_000.
	MaxNICQueueCycles uint64
}

// Derive recomputes [RateConstants] from the config's current LinkMbps,
// MaxNICQueueNs, and CPUKhz fields. Derive is idempotent given identical
// inputs and safe to call concurrently with [Config.Rates]; the caller is
// responsible for serializing concurrent calls to Derive itself (as the
// spec requires: "callers ensure no concurrent mutation of these derived
// values").
func (c *Config) Derive() {
	rates := &RateConstants{
		CyclesPerKbyte:    uint64(8*c.CPUKhz) / uint64(c.LinkMbps),
		MaxNICQueueCycles: uint64(c.MaxNICQueueNs*c.CPUKhz) / 1_000_000,
	}
	c.rates.Store(rates)
}

// Rates returns the most recently derived [RateConstants]. Call
// [Config.Derive] at least once before calling Rates.
func (c *Config) Rates() *RateConstants {
	return c.rates.Load()
}

// UnscheduledBytes returns the initial unscheduled allowance to use when
// packetizing a message of the given length: min(RTTBytes, length).
func (c *Config) UnscheduledBytes(length int) int {
	if c.RTTBytes < length {
		return c.RTTBytes
	}
	return length
}
