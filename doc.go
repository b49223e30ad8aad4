// Package homa implements the outgoing-message engine of the Homa
// transport protocol: the subsystem that turns an application-level
// message into a stream of wire-format data packets and transmits them
// through a constrained physical link while obeying Homa's priority and
// scheduling rules.
//
// Use [Packetize] to split an application message into a chain of
// [Packet] buffers held by an [OutgoingMessage]. Call
// [Engine.TransmitReady] from any context holding the owning RPC's
// socket lock to push packets through a [Socket]'s [NetworkSubmitter]
// until either the granted window is exhausted or the link budget is
// used up; in the latter case the message is handed to the [Engine]'s
// [Pacer] for later draining. [Engine.Resend] selectively retransmits a
// byte range of an already-packetized message without disturbing the
// normal send cursor.
//
// [Pacer] models the NIC-queue-budget-aware worker that drains throttled
// messages in shortest-remaining-message-first order; [LinkBudget] models
// the lock-free estimate of outstanding NIC work that both the transmit
// path and the pacer consult.
//
// A [Config] gathers the tunables that the surrounding socket layer would
// otherwise push in via sysctl (rtt_bytes, link_mbps, max_nic_queue_ns,
// throttle_min_bytes); call [Config.Derive] whenever one of these changes.
//
// This package models its external collaborators — peer discovery, socket
// locks, the IP transmission primitive — as small interfaces
// ([Peer], [NetworkSubmitter], [ByteSource]) so that it has no dependency
// on any particular socket or routing implementation.
package homa
