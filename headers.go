package homa

//
// Wire codec: the Homa common header and data header, modeled as
// gopacket layers so that packetization and retransmission reuse the
// same serialize/decode pipeline the rest of the gopacket ecosystem uses
// for IPv4/TCP/UDP.
//

import (
	"encoding/binary"
	"errors"

	"github.com/google/gopacket"
)

// LayerTypeHomaCommon is the [gopacket.LayerType] for [CommonHeader].
var LayerTypeHomaCommon = gopacket.RegisterLayerType(
	12100,
	gopacket.LayerTypeMetadata{
		Name:    "HomaCommon",
		Decoder: gopacket.DecodeFunc(decodeCommonHeader),
	},
)

// LayerTypeHomaData is the [gopacket.LayerType] for [DataHeader].
var LayerTypeHomaData = gopacket.RegisterLayerType(
	12101,
	gopacket.LayerTypeMetadata{
		Name:    "HomaData",
		Decoder: gopacket.DecodeFunc(decodeDataHeader),
	},
)

// commonHeaderLen is the fixed, on-wire size of [CommonHeader]: two
// 16-bit ports, one 16-bit unused field, one 8-bit type, one 64-bit rpc id.
const commonHeaderLen = 2 + 2 + 2 + 1 + 8

// dataHeaderLen is the fixed, on-wire size of [DataHeader] beyond the
// common header: three 32-bit fields, one 16-bit field, two 8-bit fields.
const dataHeaderLen = 4 + 4 + 4 + 2 + 1 + 1

// ErrHeaderTooShort indicates that a byte slice is too short to hold the
// header it is being decoded as.
var ErrHeaderTooShort = errors.New("homa: header too short")

// CommonHeader is the fixed prefix of every Homa wire packet.
type CommonHeader struct {
	gopacket.BaseLayer

	// SrcPort is the sending RPC's port.
	SrcPort uint16

	// DstPort is the receiving RPC's port.
	DstPort uint16

	// RPCID is the RPC this packet belongs to.
	RPCID uint64

	// Type identifies the kind of packet (data, grant, resend, ...).
	Type PacketType
}

// LayerType implements [gopacket.Layer].
func (h *CommonHeader) LayerType() gopacket.LayerType { return LayerTypeHomaCommon }

// CanDecode implements [gopacket.DecodingLayer].
func (h *CommonHeader) CanDecode() gopacket.LayerClass { return LayerTypeHomaCommon }

// NextLayerType implements [gopacket.DecodingLayer].
func (h *CommonHeader) NextLayerType() gopacket.LayerType {
	if h.Type == PacketTypeData {
		return LayerTypeHomaData
	}
	return gopacket.LayerTypePayload
}

// DecodeFromBytes implements [gopacket.DecodingLayer].
func (h *CommonHeader) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < commonHeaderLen {
		return ErrHeaderTooShort
	}
	h.SrcPort = binary.BigEndian.Uint16(data[0:2])
	h.DstPort = binary.BigEndian.Uint16(data[2:4])
	// data[4:6] is the unused field.
	h.Type = PacketType(data[6])
	h.RPCID = binary.BigEndian.Uint64(data[7:15])
	h.BaseLayer = gopacket.BaseLayer{
		Contents: data[:commonHeaderLen],
		Payload:  data[commonHeaderLen:],
	}
	return nil
}

// SerializeTo implements [gopacket.SerializableLayer].
func (h *CommonHeader) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.PrependBytes(commonHeaderLen)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(bytes[0:2], h.SrcPort)
	binary.BigEndian.PutUint16(bytes[2:4], h.DstPort)
	bytes[4], bytes[5] = 0, 0
	bytes[6] = byte(h.Type)
	binary.BigEndian.PutUint64(bytes[7:15], h.RPCID)
	return nil
}

func decodeCommonHeader(data []byte, p gopacket.PacketBuilder) error {
	h := &CommonHeader{}
	if err := h.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(h)
	return p.NextDecoder(h.NextLayerType())
}

var (
	_ gopacket.Layer             = &CommonHeader{}
	_ gopacket.DecodingLayer     = &CommonHeader{}
	_ gopacket.SerializableLayer = &CommonHeader{}
)

// DataHeader follows [CommonHeader] on every data packet.
type DataHeader struct {
	gopacket.BaseLayer

	// MessageLength is the total length of the message this packet
	// belongs to.
	MessageLength uint32

	// Offset is this packet's byte offset within the message.
	Offset uint32

	// Unscheduled is the message's unscheduled byte allowance at
	// packetization time; it is not refreshed on later submissions.
	Unscheduled uint32

	// CutoffVersion is the peer's cutoff version at the moment of
	// submission.
	CutoffVersion uint16

	// Retransmit is set when this copy of the packet was produced by
	// [Engine.Resend] rather than the normal transmit path.
	Retransmit bool
}

// LayerType implements [gopacket.Layer].
func (h *DataHeader) LayerType() gopacket.LayerType { return LayerTypeHomaData }

// CanDecode implements [gopacket.DecodingLayer].
func (h *DataHeader) CanDecode() gopacket.LayerClass { return LayerTypeHomaData }

// NextLayerType implements [gopacket.DecodingLayer].
func (h *DataHeader) NextLayerType() gopacket.LayerType { return gopacket.LayerTypePayload }

// DecodeFromBytes implements [gopacket.DecodingLayer].
func (h *DataHeader) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < dataHeaderLen {
		return ErrHeaderTooShort
	}
	h.MessageLength = binary.BigEndian.Uint32(data[0:4])
	h.Offset = binary.BigEndian.Uint32(data[4:8])
	h.Unscheduled = binary.BigEndian.Uint32(data[8:12])
	h.CutoffVersion = binary.BigEndian.Uint16(data[12:14])
	h.Retransmit = data[14] != 0
	// data[15] is padding.
	h.BaseLayer = gopacket.BaseLayer{
		Contents: data[:dataHeaderLen],
		Payload:  data[dataHeaderLen:],
	}
	return nil
}

// SerializeTo implements [gopacket.SerializableLayer].
func (h *DataHeader) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.PrependBytes(dataHeaderLen)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(bytes[0:4], h.MessageLength)
	binary.BigEndian.PutUint32(bytes[4:8], h.Offset)
	binary.BigEndian.PutUint32(bytes[8:12], h.Unscheduled)
	binary.BigEndian.PutUint16(bytes[12:14], h.CutoffVersion)
	if h.Retransmit {
		bytes[14] = 1
	} else {
		bytes[14] = 0
	}
	bytes[15] = 0
	return nil
}

func decodeDataHeader(data []byte, p gopacket.PacketBuilder) error {
	h := &DataHeader{}
	if err := h.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(h)
	return p.NextDecoder(h.NextLayerType())
}

var (
	_ gopacket.Layer             = &DataHeader{}
	_ gopacket.DecodingLayer     = &DataHeader{}
	_ gopacket.SerializableLayer = &DataHeader{}
)

// vlanPriorityTable maps a logical priority (0 for lowest, 7 for highest)
// to the wire VLAN priority code. The mapping is not the identity because
// wire code 0 is not the lowest priority; see the IEEE 802.1Q standard.
// Preserved exactly from the original source's set_priority table.
var vlanPriorityTable = [8]uint8{1, 0, 2, 3, 4, 5, 6, 7}

// VLANPriorityCode maps a logical priority (0..7) to its on-wire VLAN
// priority code.
func VLANPriorityCode(priority uint8) uint8 {
	return vlanPriorityTable[priority]
}
