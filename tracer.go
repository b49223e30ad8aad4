package homa

//
// Packet tracing: wraps a [NetworkSubmitter] and mirrors every submitted
// frame into a pcap file, adapted from the teacher's PCAPDumper/
// pcapDumperNIC (pcap.go) — same bounded channel, background writer
// goroutine, and "drop from the capture rather than block" behavior.
//

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/rs/xid"
)

// NewTraceFilename returns a unique pcap filename for a tracing session,
// prefixed with prefix. The uniqueness comes from an [xid.ID], the same
// role xid plays for correlating request/session identifiers in the
// go-tcpinfo examples this behavior is grounded on.
func NewTraceFilename(prefix string) string {
	return prefix + "-" + xid.New().String() + ".pcap"
}

// PacketTracer wraps a [NetworkSubmitter], mirroring every packet it
// submits into a pcap file for offline inspection. The zero value is
// invalid; use [NewPacketTracer]. Call [PacketTracer.Close] to stop the
// capture and join the background writer; frames still queued for the
// writer when Close is called may be left out of the capture.
type PacketTracer struct {
	next   NetworkSubmitter
	logger Logger

	closeOnce sync.Once
	cancel    context.CancelFunc
	joined    chan any
	pich      chan []byte
}

var _ NetworkSubmitter = &PacketTracer{}

// NewPacketTracer creates a [PacketTracer] writing to filename and
// forwarding submissions to next.
func NewPacketTracer(filename string, next NetworkSubmitter, logger Logger) *PacketTracer {
	if logger == nil {
		logger = nullLogger{}
	}
	const manyPackets = 4096
	ctx, cancel := context.WithCancel(context.Background())
	pt := &PacketTracer{
		next:   next,
		logger: logger,
		cancel: cancel,
		joined: make(chan any),
		pich:   make(chan []byte, manyPackets),
	}
	go pt.loop(ctx, filename)
	return pt
}

// SubmitToNetwork implements [NetworkSubmitter].
func (pt *PacketTracer) SubmitToNetwork(packet *Packet) error {
	if frame, err := packet.Serialize(); err == nil {
		pt.deliver(frame)
	}
	return pt.next.SubmitToNetwork(packet)
}

// deliver enqueues frame for capture, dropping it silently if the
// background writer is falling behind.
func (pt *PacketTracer) deliver(frame []byte) {
	snapshot := append([]byte{}, frame...)
	select {
	case pt.pich <- snapshot:
	default:
		// just drop from the capture
	}
}

func (pt *PacketTracer) loop(ctx context.Context, filename string) {
	defer close(pt.joined)

	filep, err := os.Create(filename)
	if err != nil {
		pt.logger.Warnf("homa: PacketTracer: os.Create: %s", err.Error())
		return
	}
	defer func() {
		if err := filep.Close(); err != nil {
			pt.logger.Warnf("homa: PacketTracer: filep.Close: %s", err.Error())
		}
	}()

	w := pcapgo.NewWriter(filep)
	const largeSnapLen = 262144
	if err := w.WriteFileHeader(largeSnapLen, layers.LinkTypeEthernet); err != nil {
		pt.logger.Warnf("homa: PacketTracer: WriteFileHeader: %s", err.Error())
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-pt.pich:
			ci := gopacket.CaptureInfo{
				Timestamp:     time.Now(),
				CaptureLength: len(frame),
				Length:        len(frame),
			}
			if err := w.WritePacket(ci, frame); err != nil {
				pt.logger.Warnf("homa: PacketTracer: WritePacket: %s", err.Error())
			}
		}
	}
}

// Close stops capturing and waits for the background writer to finish.
func (pt *PacketTracer) Close() error {
	pt.closeOnce.Do(func() {
		pt.cancel()
		<-pt.joined
	})
	return nil
}
