package homa

//
// Resender (§4.4): selective range retransmission at a caller-chosen
// priority, without disturbing the normal send cursor.
//

// Resend retransmits every packet of msg that overlaps the byte range
// [start, end) at the given priority. Packets outside the range are
// skipped; packets currently referenced elsewhere (shared) are skipped
// without being marked for retransmission. Resend does not alter
// msg.NextOffset, msg.Granted, or any other cursor state: a subsequent
// [Engine.TransmitReady] continues from wherever it left off.
func (e *Engine) Resend(msg *OutgoingMessage, start, end int, priority uint8, socket Socket) {
	submitter := socket.Submitter()
	for _, packet := range msg.Packets {
		if packet.Type() != PacketTypeData {
			continue
		}
		if packet.offset+MaxDataPerPacket <= start {
			continue
		}
		if packet.offset >= end {
			break
		}
		if packet.Shared() {
			continue
		}

		packet.setRetransmitFlag()
		packet.setPriority(priority)
		packet.StripToTransportHeader()
		packet.refreshCutoffVersion(msg.Addressing.Peer.CutoffVersion())

		e.submitDataPacket(packet, msg.Addressing.Peer, submitter)
		e.Metrics.IncResentPackets()
	}
}
