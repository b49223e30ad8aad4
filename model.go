package homa

//
// Data model
//

import "errors"

// Logger is the logger we're using.
type Logger interface {
	// Debugf formats and emits a debug message.
	Debugf(format string, v ...any)

	// Debug emits a debug message.
	Debug(message string)

	// Infof formats and emits an informational message.
	Infof(format string, v ...any)

	// Info emits an informational message.
	Info(message string)

	// Warnf formats and emits a warning message.
	Warnf(format string, v ...any)

	// Warn emits a warning message.
	Warn(message string)
}

// MaxMessageLength is the largest message this engine will packetize.
const MaxMessageLength = 1 << 20

// MaxDataPerPacket is the maximum number of payload bytes in a single
// data packet.
const MaxDataPerPacket = 1400

// SkbSize is the nominal packet buffer capacity. No code in this package
// allocates buffers of this size: [Packetize] sizes each packet's payload
// to exactly the bytes it carries.
const SkbSize = 1 << 16

// SkbReserve is the front reserve left before the transport header of
// each packet buffer, to leave room for headers added by layers below
// this engine (e.g. encapsulation headers added on retransmission paths).
const SkbReserve = 256

// MaxHeader is the minimum size, in bytes, to which every control packet
// is zero-padded on the wire.
const MaxHeader = 160

// IPv4HeaderLen, VLANHeaderLen, and EthOverhead are the per-packet
// on-wire overheads added on top of the transport payload when
// estimating how long a packet will occupy the link; see [LinkBudget.Update].
const (
	IPv4HeaderLen = 20
	VLANHeaderLen = 4
	EthOverhead   = 24
)

// PacketType identifies the kind of a Homa packet.
type PacketType uint8

// The packet types known to this engine.
const (
	PacketTypeData    PacketType = 0x10
	PacketTypeGrant   PacketType = 0x11
	PacketTypeResend  PacketType = 0x12
	PacketTypeBusy    PacketType = 0x13
	PacketTypeCutoffs PacketType = 0x14
)

// MaxPriority is the highest (and therefore used for control packets)
// logical priority level.
const MaxPriority = 7

// ErrTooLarge indicates that a message exceeds [MaxMessageLength].
var ErrTooLarge = errors.New("homa: message too large")

// ErrAllocFail indicates that packet buffer allocation failed.
var ErrAllocFail = errors.New("homa: packet allocation failed")

// ErrSourceIO indicates that reading the application's byte source failed.
var ErrSourceIO = errors.New("homa: byte source read failed")

// ErrSocketBusy indicates that the owning socket is currently held by a
// user-context caller, so the pacer must retry this message on its next
// burst rather than transmit now.
var ErrSocketBusy = errors.New("homa: socket busy")

// ErrStackClosed indicates that the engine, link, or submitter this call
// depended on has already been closed.
var ErrStackClosed = errors.New("homa: stack closed")

// ByteSource iterates over the bytes of an application message being
// packetized. It is the abstraction this engine uses in place of a
// user-space buffer / iovec traversal.
type ByteSource interface {
	// Read copies up to len(p) bytes into p and returns how many bytes
	// were copied. Read returns [ErrSourceIO] (or a wrapping error) if
	// the underlying buffer cannot supply the requested bytes.
	Read(p []byte) (n int, err error)
}

// Peer is the (external) peer collaborator this engine consults for
// priority- and cutoff-related decisions. Peer discovery, route caching,
// and lifecycle are out of scope for this engine.
type Peer interface {
	// CutoffVersion returns the peer's current cutoff version, an
	// incrementing integer the peer publishes whenever its priority
	// thresholds change.
	CutoffVersion() uint16

	// UnscheduledPriorityFor returns the priority (0..7) to use for
	// packets sent within a message's unscheduled byte range, given the
	// message's total length.
	UnscheduledPriorityFor(length int) uint8

	// DestinationRoute returns an opaque, cacheable handle describing
	// how to reach this peer. The handle's type and meaning are left to
	// the caller's routing layer; this engine only caches and forwards it.
	DestinationRoute() any
}

// NetworkSubmitter is the IP transmission primitive this engine calls to
// hand a packet to the network. Implementations take ownership of the
// packet's wire bytes for the duration of the call; on error they must
// not retain a reference to the buffer beyond what [Packet] already holds.
type NetworkSubmitter interface {
	// SubmitToNetwork transmits a fully-framed packet. Errors are
	// counted by the caller and never retried internally.
	SubmitToNetwork(packet *Packet) error
}

// Clock abstracts a monotonic, high-resolution cycle counter so that the
// link-budget arithmetic and the pacer's spin-wait can be driven by a
// deterministic double in tests.
type Clock interface {
	// Cycles returns the current time expressed in the same unit as
	// [Config.Derive]'s derived cycle budgets.
	Cycles() uint64
}
