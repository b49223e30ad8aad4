package homa

import "sync"

// Mockable collaborators for tests, following the MockableNIC-with-
// Mock*Func-fields pattern from the teacher's model.go/nic_test.go.

// MockablePeer is a [Peer] whose methods are overridable via fields.
type MockablePeer struct {
	MockCutoffVersion          func() uint16
	MockUnscheduledPriorityFor func(length int) uint8
	MockDestinationRoute       func() any
}

var _ Peer = &MockablePeer{}

func (p *MockablePeer) CutoffVersion() uint16 {
	if p.MockCutoffVersion != nil {
		return p.MockCutoffVersion()
	}
	return 0
}

func (p *MockablePeer) UnscheduledPriorityFor(length int) uint8 {
	if p.MockUnscheduledPriorityFor != nil {
		return p.MockUnscheduledPriorityFor(length)
	}
	return 0
}

func (p *MockablePeer) DestinationRoute() any {
	if p.MockDestinationRoute != nil {
		return p.MockDestinationRoute()
	}
	return "mock-route"
}

// MockableSubmitter is a [NetworkSubmitter] whose method is overridable.
// Submissions are mutex-protected since the pacer worker's goroutine and
// the test goroutine both touch Submitted.
type MockableSubmitter struct {
	MockSubmitToNetwork func(packet *Packet) error

	mu        sync.Mutex
	submitted []*Packet
}

var _ NetworkSubmitter = &MockableSubmitter{}

func (s *MockableSubmitter) SubmitToNetwork(packet *Packet) error {
	s.mu.Lock()
	s.submitted = append(s.submitted, packet)
	s.mu.Unlock()
	if s.MockSubmitToNetwork != nil {
		return s.MockSubmitToNetwork(packet)
	}
	return nil
}

// Submitted returns a snapshot of the packets submitted so far, in order.
func (s *MockableSubmitter) Submitted() []*Packet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Packet{}, s.submitted...)
}

// MockableSocket is a [Socket] whose methods are overridable via fields.
type MockableSocket struct {
	MockTryLock   func() bool
	MockUnlock    func()
	submitter     NetworkSubmitter
	unlockInvoked int
}

var _ Socket = &MockableSocket{}

func (s *MockableSocket) TryLock() bool {
	if s.MockTryLock != nil {
		return s.MockTryLock()
	}
	return true
}

func (s *MockableSocket) Unlock() {
	s.unlockInvoked++
	if s.MockUnlock != nil {
		s.MockUnlock()
	}
}

func (s *MockableSocket) Submitter() NetworkSubmitter {
	return s.submitter
}

// newStubByteSource returns a [ByteSource] that fills reads with a
// repeating byte pattern, for tests that don't care about payload content.
func newStubByteSource(total int) *stubByteSource {
	return &stubByteSource{remaining: total}
}

type stubByteSource struct {
	remaining int
	next      byte
}

func (s *stubByteSource) Read(p []byte) (int, error) {
	n := len(p)
	if n > s.remaining {
		n = s.remaining
	}
	for i := 0; i < n; i++ {
		p[i] = s.next
		s.next++
	}
	s.remaining -= n
	return n, nil
}

func testConfig() *Config {
	cfg := &Config{
		RTTBytes:         10000,
		LinkMbps:         10000,
		MaxNICQueueNs:    2000,
		ThrottleMinBytes: 1000,
		CPUKhz:           1000000,
		DontThrottle:     false,
	}
	cfg.Derive()
	return cfg
}
