package homa

//
// Packetizer: splits an application message into a chain of data packets.
//

import (
	"fmt"
)

// Addressing bundles the 4-tuple a message is packetized for.
type Addressing struct {
	// SrcPort is the sending RPC's port.
	SrcPort uint16

	// DstPort is the receiving RPC's port.
	DstPort uint16

	// RPCID is the RPC this message belongs to.
	RPCID uint64

	// Peer is the destination peer, consulted for the cutoff version at
	// packetization time and again (for a possibly newer value) at
	// every subsequent transmission.
	Peer Peer
}

// OutgoingMessage is one outbound message whose payload is immutable once
// packetized. The zero value is invalid; use [Packetize] to construct one.
//
// Per-message cursor fields (NextOffset, Granted, SchedPriority, and the
// cached next-packet index) are protected by the owning RPC's socket
// lock; this package never locks them itself.
type OutgoingMessage struct {
	// Length is the total message length in bytes.
	Length int

	// Packets is the ordered chain of packet buffers covering [0, Length).
	Packets []*Packet

	// Unscheduled is the byte count the sender may send without waiting
	// for a grant.
	Unscheduled int

	// Granted is the highest byte offset the sender is currently
	// permitted to cross.
	Granted int

	// NextOffset is the cursor into the byte stream: the next packet to
	// send is the first whose start offset is >= NextOffset.
	NextOffset int

	// SchedPriority is the priority used for packets beyond Unscheduled;
	// set externally by the grant layer.
	SchedPriority uint8

	// Addressing is this message's 4-tuple.
	Addressing Addressing

	// nextIndex caches the position of NextOffset within Packets for
	// O(1) progress, mirroring next_packet in the spec.
	nextIndex int

	// queueNode is this message's (at most one) link into the pacer
	// queue; nil when detached.
	queueNode *pacerNode
}

// packetCount returns the number of packets needed to hold length bytes.
func packetCount(length int) int {
	if length == 0 {
		return 0
	}
	return (length + MaxDataPerPacket - 1) / MaxDataPerPacket
}

// Packetize builds a [OutgoingMessage] by splitting length bytes read from
// source into a chain of data packets, per §4.1.
//
// Packetize fails with [ErrTooLarge] if length exceeds [MaxMessageLength].
// Any read error from source, wrapped as [ErrSourceIO], aborts the
// operation and releases every packet buffer allocated so far.
func Packetize(source ByteSource, length int, addressing Addressing, cfg *Config) (*OutgoingMessage, error) {
	if length > MaxMessageLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, length)
	}

	unscheduled := cfg.UnscheduledBytes(length)

	packets := make([]*Packet, 0, packetCount(length))
	for bytesLeft := length; bytesLeft > 0; bytesLeft -= MaxDataPerPacket {
		curSize := MaxDataPerPacket
		if curSize > bytesLeft {
			curSize = bytesLeft
		}
		offset := length - bytesLeft

		payload := make([]byte, curSize)
		if err := readFull(source, payload); err != nil {
			return nil, err
		}

		common := &CommonHeader{
			SrcPort: addressing.SrcPort,
			DstPort: addressing.DstPort,
			RPCID:   addressing.RPCID,
			Type:    PacketTypeData,
		}
		data := &DataHeader{
			MessageLength: uint32(length),
			Offset:        uint32(offset),
			Unscheduled:   uint32(unscheduled),
			CutoffVersion: addressing.Peer.CutoffVersion(),
			Retransmit:    false,
		}
		packets = append(packets, newDataPacket(common, data, payload))
	}

	granted := unscheduled
	if granted > length {
		granted = length
	}

	msg := &OutgoingMessage{
		Length:        length,
		Packets:       packets,
		Unscheduled:   unscheduled,
		Granted:       granted,
		NextOffset:    0,
		SchedPriority: 0,
		Addressing:    addressing,
		nextIndex:     0,
	}
	return msg, nil
}

// readFull reads exactly len(p) bytes from source, wrapping any short
// read or error as [ErrSourceIO].
func readFull(source ByteSource, p []byte) error {
	for read := 0; read < len(p); {
		n, err := source.Read(p[read:])
		read += n
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSourceIO, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: short read", ErrSourceIO)
		}
	}
	return nil
}

// NextPacket returns the packet cached by the cursor's next-offset index,
// or nil if the cursor has run off the end of the chain.
func (m *OutgoingMessage) NextPacket() *Packet {
	if m.nextIndex >= len(m.Packets) {
		return nil
	}
	return m.Packets[m.nextIndex]
}

// Remaining returns the number of bytes not yet sent: Length - NextOffset.
// This is the SRMF key the pacer queue orders messages by.
func (m *OutgoingMessage) Remaining() int {
	return m.Length - m.NextOffset
}

// Reset rewinds the send cursor to its initial state (§4.2). Packet
// payloads are preserved; each packet's retransmit flag is left as-is —
// the transmit path clears it on each normal send.
func (m *OutgoingMessage) Reset() {
	m.NextOffset = 0
	m.nextIndex = 0
	m.Granted = m.Unscheduled
	if m.Granted > m.Length {
		m.Granted = m.Length
	}
}

// Destroy releases a message's packet chain. Callers that need to cancel
// an in-flight message must first unlink it from the pacer queue (see
// [Pacer.Remove]) before calling Destroy.
//
// The original source guards this on length < 0, which is vestigial once
// length is modeled as an unsigned/non-negative quantity; this
// implementation always clears the chain unconditionally.
func (m *OutgoingMessage) Destroy() {
	m.Packets = nil
	m.nextIndex = len(m.Packets)
}
