package homa

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPacketize(t *testing.T) {
	// testcase describes a test case for [Packetize]
	type testcase struct {
		// name is the name of this test case
		name string

		// length is the message length to packetize
		length int

		// expectOffsets contains the expected per-packet offsets
		expectOffsets []int

		// expectPayloadLens contains the expected per-packet payload lengths
		expectPayloadLens []int

		// expectUnscheduled is the expected unscheduled allowance
		expectUnscheduled int

		// expectGranted is the expected initial granted value
		expectGranted int
	}

	var testcases = []testcase{{
		name:              "length 3000 splits into 1400/1400/200",
		length:            3000,
		expectOffsets:     []int{0, 1400, 2800},
		expectPayloadLens: []int{1400, 1400, 200},
		expectUnscheduled: 3000,
		expectGranted:     3000,
	}, {
		name:              "length smaller than one packet",
		length:            42,
		expectOffsets:     []int{0},
		expectPayloadLens: []int{42},
		expectUnscheduled: 42,
		expectGranted:     42,
	}, {
		name:              "empty message",
		length:            0,
		expectOffsets:     nil,
		expectPayloadLens: nil,
		expectUnscheduled: 0,
		expectGranted:     0,
	}}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			peer := &MockablePeer{}
			addressing := Addressing{SrcPort: 1000, DstPort: 2000, RPCID: 99, Peer: peer}

			msg, err := Packetize(newStubByteSource(tc.length), tc.length, addressing, cfg)
			if err != nil {
				t.Fatal(err)
			}

			var gotOffsets []int
			var gotPayloadLens []int
			for _, p := range msg.Packets {
				gotOffsets = append(gotOffsets, p.Offset())
				gotPayloadLens = append(gotPayloadLens, p.PayloadLength())
			}

			if diff := cmp.Diff(tc.expectOffsets, gotOffsets); diff != "" {
				t.Fatal(diff)
			}
			if diff := cmp.Diff(tc.expectPayloadLens, gotPayloadLens); diff != "" {
				t.Fatal(diff)
			}
			if msg.Unscheduled != tc.expectUnscheduled {
				t.Fatalf("unscheduled: got %d, want %d", msg.Unscheduled, tc.expectUnscheduled)
			}
			if msg.Granted != tc.expectGranted {
				t.Fatalf("granted: got %d, want %d", msg.Granted, tc.expectGranted)
			}
			if msg.Length != tc.length {
				t.Fatalf("length: got %d, want %d", msg.Length, tc.length)
			}
		})
	}
}

func TestPacketizeTooLarge(t *testing.T) {
	cfg := testConfig()
	peer := &MockablePeer{}
	addressing := Addressing{Peer: peer}

	_, err := Packetize(newStubByteSource(1), MaxMessageLength+1, addressing, cfg)
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestOutgoingMessageReset(t *testing.T) {
	cfg := testConfig()
	peer := &MockablePeer{}
	addressing := Addressing{Peer: peer}

	msg, err := Packetize(newStubByteSource(3000), 3000, addressing, cfg)
	if err != nil {
		t.Fatal(err)
	}

	msg.NextOffset = 2800
	msg.Granted = 3000

	msg.Reset()

	if msg.NextOffset != 0 {
		t.Fatalf("NextOffset: got %d, want 0", msg.NextOffset)
	}
	if msg.NextPacket() != msg.Packets[0] {
		t.Fatal("cursor did not rewind to the first packet")
	}
	if msg.Granted != msg.Unscheduled {
		t.Fatalf("Granted: got %d, want %d", msg.Granted, msg.Unscheduled)
	}
}

func TestOutgoingMessageDestroy(t *testing.T) {
	cfg := testConfig()
	peer := &MockablePeer{}
	addressing := Addressing{Peer: peer}

	msg, err := Packetize(newStubByteSource(3000), 3000, addressing, cfg)
	if err != nil {
		t.Fatal(err)
	}

	msg.Destroy()

	if len(msg.Packets) != 0 {
		t.Fatal("expected the packet chain to be released")
	}
	if msg.NextPacket() != nil {
		t.Fatal("expected NextPacket to return nil after destroy")
	}
}
