package homa

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/gopacket"
)

func TestCommonHeaderRoundTrip(t *testing.T) {
	want := &CommonHeader{
		SrcPort: 1234,
		DstPort: 5678,
		RPCID:   0xdeadbeefcafebabe,
		Type:    PacketTypeData,
	}

	buf := gopacket.NewSerializeBuffer()
	if err := want.SerializeTo(buf, gopacket.SerializeOptions{}); err != nil {
		t.Fatal(err)
	}

	got := &CommonHeader{}
	if err := got.DecodeFromBytes(buf.Bytes(), gopacket.NilDecodeFeedback); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(want.SrcPort, got.SrcPort); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff(want.DstPort, got.DstPort); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff(want.RPCID, got.RPCID); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff(want.Type, got.Type); diff != "" {
		t.Fatal(diff)
	}
}

func TestCommonHeaderNextLayerType(t *testing.T) {
	data := &CommonHeader{Type: PacketTypeData}
	if data.NextLayerType() != LayerTypeHomaData {
		t.Fatal("expected a data packet to decode into a HomaData layer")
	}

	grant := &CommonHeader{Type: PacketTypeGrant}
	if grant.NextLayerType() != gopacket.LayerTypePayload {
		t.Fatal("expected a non-data packet to fall back to a raw payload")
	}
}

func TestCommonHeaderTooShort(t *testing.T) {
	h := &CommonHeader{}
	if err := h.DecodeFromBytes(make([]byte, commonHeaderLen-1), gopacket.NilDecodeFeedback); err == nil {
		t.Fatal("expected an error")
	}
}

func TestDataHeaderRoundTrip(t *testing.T) {
	want := &DataHeader{
		MessageLength: 6000,
		Offset:        2800,
		Unscheduled:   2000,
		CutoffVersion: 7,
		Retransmit:    true,
	}

	buf := gopacket.NewSerializeBuffer()
	if err := want.SerializeTo(buf, gopacket.SerializeOptions{}); err != nil {
		t.Fatal(err)
	}

	got := &DataHeader{}
	if err := got.DecodeFromBytes(buf.Bytes(), gopacket.NilDecodeFeedback); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b gopacket.BaseLayer) bool { return true })); diff != "" {
		t.Fatal(diff)
	}
}

func TestVLANPriorityCode(t *testing.T) {
	// testcase describes a test case for [VLANPriorityCode]
	type testcase struct {
		name     string
		priority uint8
		expect   uint8
	}

	var testcases = []testcase{
		{name: "lowest logical priority maps to VLAN code 1", priority: 0, expect: 1},
		{name: "priority 1 maps to VLAN code 0", priority: 1, expect: 0},
		{name: "priority 7 is the identity", priority: 7, expect: 7},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			if got := VLANPriorityCode(tc.priority); got != tc.expect {
				t.Fatalf("got %d, want %d", got, tc.expect)
			}
		})
	}
}
