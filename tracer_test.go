package homa

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewTraceFilename(t *testing.T) {
	a := NewTraceFilename("homa")
	b := NewTraceFilename("homa")
	if a == b {
		t.Fatal("expected two distinct trace filenames")
	}
}

func TestPacketTracerForwardsAndWrites(t *testing.T) {
	peer := &MockablePeer{}
	cfg := testConfig()

	addressing := Addressing{SrcPort: 1, DstPort: 2, RPCID: 3, Peer: peer}
	msg, err := Packetize(newStubByteSource(100), 100, addressing, cfg)
	if err != nil {
		t.Fatal(err)
	}

	next := &MockableSubmitter{}
	filename := filepath.Join(t.TempDir(), "trace.pcap")
	tracer := NewPacketTracer(filename, next, nil)

	for _, p := range msg.Packets {
		p.ensureRoute(peer)
		if err := tracer.SubmitToNetwork(p); err != nil {
			t.Fatal(err)
		}
	}
	if err := tracer.Close(); err != nil {
		t.Fatal(err)
	}

	if len(next.Submitted()) != len(msg.Packets) {
		t.Fatalf("expected every packet to be forwarded, got %d of %d", len(next.Submitted()), len(msg.Packets))
	}

	info, err := os.Stat(filename)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Fatal("expected a non-empty pcap file")
	}
}
