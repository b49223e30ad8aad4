package homa

//
// Packet buffer
//

import (
	"sync/atomic"

	"github.com/google/gopacket"
)

// Packet is a single wire packet belonging to an [OutgoingMessage], or a
// standalone control packet. The zero value is invalid; packets are
// created by [Packetize] or [Engine.TransmitControl].
//
// A Packet's reference count starts at 1, representing the owning
// message's reference. [NetworkSubmitter] implementations that hand the
// packet off to something asynchronous (a queue, another goroutine) call
// [Packet.Acquire] before doing so and [Packet.Release] once the hand-off
// has fully completed; while the count is above 1 the packet is "shared"
// and the transmit path will not touch it again (§4.3 step 3, §4.4).
type Packet struct {
	common *CommonHeader
	data   *DataHeader

	// payload holds the data bytes for a DATA packet (nil otherwise).
	payload []byte

	// controlBody holds the serialized body for a non-DATA packet,
	// zero-padded to at least [MaxHeader] bytes (nil otherwise).
	controlBody []byte

	// offset is this packet's byte offset within its message; only
	// meaningful when common.Type == PacketTypeData.
	offset int

	// vlanPriority is the on-wire VLAN priority code applied at the most
	// recent submission.
	vlanPriority uint8

	// routeHandle is a cached destination-routing handle; empty until
	// the first submission, and may be cleared by the network layer
	// after an error.
	routeHandle any

	// pushedHeaderLen models bytes of a lower-layer header a previous
	// submission attempt prepended in front of the transport header.
	// The transmit path strips these back off before resubmitting
	// (§4.3 step 5).
	pushedHeaderLen int

	refs atomic.Int32
}

func newDataPacket(common *CommonHeader, data *DataHeader, payload []byte) *Packet {
	p := &Packet{common: common, data: data, payload: payload, offset: int(data.Offset)}
	p.refs.Store(1)
	return p
}

func newControlPacket(common *CommonHeader, body []byte) *Packet {
	padded := body
	if len(padded) < MaxHeader {
		padded = make([]byte, MaxHeader)
		copy(padded, body)
	}
	p := &Packet{common: common, controlBody: padded}
	p.refs.Store(1)
	return p
}

// Type returns the packet's [PacketType].
func (p *Packet) Type() PacketType { return p.common.Type }

// Offset returns the packet's byte offset within its message. Only
// meaningful for data packets.
func (p *Packet) Offset() int { return p.offset }

// RPCID returns the RPC identifier carried in the common header.
func (p *Packet) RPCID() uint64 { return p.common.RPCID }

// Retransmit reports whether this packet's retransmit flag is set.
func (p *Packet) Retransmit() bool {
	return p.data != nil && p.data.Retransmit
}

// VLANPriority returns the on-wire VLAN priority code applied at the most
// recent submission.
func (p *Packet) VLANPriority() uint8 { return p.vlanPriority }

// RouteHandle returns the cached destination-routing handle, or nil if
// none has been set yet.
func (p *Packet) RouteHandle() any { return p.routeHandle }

// Shared reports whether another in-flight use of this packet exists,
// i.e. whether a prior submission has not yet completed.
func (p *Packet) Shared() bool {
	return p.refs.Load() > 1
}

// Acquire increments the packet's reference count. Call this before
// handing the packet to something asynchronous.
func (p *Packet) Acquire() {
	p.refs.Add(1)
}

// Release decrements the packet's reference count once an asynchronous
// hand-off has completed.
func (p *Packet) Release() {
	p.refs.Add(-1)
}

// StripToTransportHeader discards any bytes a previous submission
// attempt pushed in front of the transport header (§4.3 step 5).
func (p *Packet) StripToTransportHeader() {
	p.pushedHeaderLen = 0
}

// pushHeader models a lower layer prepending n bytes in front of the
// transport header; used by tests that exercise the normalize-framing
// step.
func (p *Packet) pushHeader(n int) {
	p.pushedHeaderLen += n
}

// setPriority tags the packet with the given logical priority (0..7),
// converting it to the on-wire VLAN code via [VLANPriorityCode].
func (p *Packet) setPriority(priority uint8) {
	p.vlanPriority = VLANPriorityCode(priority)
}

// refreshCutoffVersion updates the packet's cutoff version field to the
// peer's current value; only meaningful for data packets (§4.3 step 4).
func (p *Packet) refreshCutoffVersion(version uint16) {
	if p.data != nil {
		p.data.CutoffVersion = version
	}
}

// clearRetransmitFlag clears the retransmit flag on a data packet,
// undoing a previous [Engine.Resend] call (§4.3 step 4).
func (p *Packet) clearRetransmitFlag() {
	if p.data != nil {
		p.data.Retransmit = false
	}
}

// setRetransmitFlag marks a data packet as a retransmission (§4.4).
func (p *Packet) setRetransmitFlag() {
	if p.data != nil {
		p.data.Retransmit = true
	}
}

// ensureRoute fills in the packet's route handle from peer if empty, and
// returns the route to use for this submission.
func (p *Packet) ensureRoute(peer Peer) any {
	if p.routeHandle == nil {
		p.routeHandle = peer.DestinationRoute()
	}
	return p.routeHandle
}

// Serialize renders the packet to its wire bytes, including any header
// bytes a previous submission attempt pushed in front of the transport
// header (stripped first by [Packet.StripToTransportHeader] on the
// normal transmit path).
func (p *Packet) Serialize() ([]byte, error) {
	buf := gopacket.NewSerializeBufferExpectedSize(SkbReserve, MaxDataPerPacket)
	opts := gopacket.SerializeOptions{FixLengths: false, ComputeChecksums: false}

	var layersToSerialize []gopacket.SerializableLayer
	switch {
	case p.data != nil:
		layersToSerialize = []gopacket.SerializableLayer{p.common, p.data, gopacket.Payload(p.payload)}
	default:
		layersToSerialize = []gopacket.SerializableLayer{p.common, gopacket.Payload(p.controlBody)}
	}
	if err := gopacket.SerializeLayers(buf, opts, layersToSerialize...); err != nil {
		return nil, err
	}
	frame := buf.Bytes()
	if p.pushedHeaderLen > 0 {
		padded := make([]byte, p.pushedHeaderLen+len(frame))
		copy(padded[p.pushedHeaderLen:], frame)
		frame = padded
	}
	return frame, nil
}

// PayloadLength returns the number of payload bytes this packet carries
// (zero for control packets).
func (p *Packet) PayloadLength() int {
	return len(p.payload)
}

// WireLength returns the number of bytes from the transport header
// onward (headers plus payload), excluding any front reserve and
// excluding the IP/VLAN/Ethernet overhead [LinkBudget.Update] accounts
// for separately.
func (p *Packet) WireLength() int {
	if p.data != nil {
		return commonHeaderLen + dataHeaderLen + len(p.payload)
	}
	return commonHeaderLen + len(p.controlBody)
}
