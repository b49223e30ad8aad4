package homa

import "testing"

func TestLinkBudgetUpdate(t *testing.T) {
	// Scenario 6: update_link_idle(1000 bytes) with cycles_per_kbyte=1000,
	// on-wire overhead summing to 42 bytes (here IPv4+VLAN+Eth=48,
	// slightly different from the scenario's illustrative 42, so we
	// compute the expected value from this package's own constants
	// rather than hard-coding the scenario's worked number), current
	// clock 5000, link_idle_time=10000: new = old + packet_cycles since
	// old (10000) >= clock (5000).
	lb := NewLinkBudget()
	lb.idleTime.Store(10_000)

	clock := NewManualClock(5_000)
	rates := &RateConstants{CyclesPerKbyte: 1000}

	lb.Update(clock, rates, 1000)

	bytesOnWire := uint64(1000 + IPv4HeaderLen + VLANHeaderLen + EthOverhead)
	packetCycles := bytesOnWire * rates.CyclesPerKbyte / 1000
	want := uint64(10_000) + packetCycles

	if got := lb.IdleTime(); got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestLinkBudgetUpdateClockAheadOfIdle(t *testing.T) {
	lb := NewLinkBudget()
	lb.idleTime.Store(1_000)

	clock := NewManualClock(5_000)
	rates := &RateConstants{CyclesPerKbyte: 1000}

	lb.Update(clock, rates, 1000)

	bytesOnWire := uint64(1000 + IPv4HeaderLen + VLANHeaderLen + EthOverhead)
	packetCycles := bytesOnWire * rates.CyclesPerKbyte / 1000
	want := uint64(5_000) + packetCycles

	if got := lb.IdleTime(); got != want {
		t.Fatalf("got %d, want %d (clock ahead of stale idle time)", got, want)
	}
}

func TestManualClock(t *testing.T) {
	c := NewManualClock(100)
	if c.Cycles() != 100 {
		t.Fatalf("got %d, want 100", c.Cycles())
	}
	if got := c.Advance(50); got != 150 {
		t.Fatalf("Advance: got %d, want 150", got)
	}
	if c.Cycles() != 150 {
		t.Fatalf("got %d, want 150", c.Cycles())
	}
	c.Set(0)
	if c.Cycles() != 0 {
		t.Fatalf("got %d, want 0", c.Cycles())
	}
}

func TestHRClockMonotonic(t *testing.T) {
	c := NewHRClock(1_000_000)
	first := c.Cycles()
	second := c.Cycles()
	if second < first {
		t.Fatalf("expected a monotonic clock: got %d then %d", first, second)
	}
}
