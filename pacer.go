package homa

//
// Pacer Queue (§4.5) and Pacer Worker (§4.6): a shortest-remaining-
// message-first queue of throttled messages, drained by a single
// dedicated worker goroutine. The queue's linking discipline is modeled
// on the teacher's [Link]/[RouterPort] goroutine-plus-channel-wakeup
// idiom; the spin-then-lock structure of pacer_burst follows
// homa_pacer_xmit in original_source/homa_outgoing.c.
//

import (
	"sync"

	"github.com/apex/log"
)

// Socket is the lock and transmission collaborator a throttled message's
// owning RPC exposes to the pacer. Socket abstracts away RPC/socket
// lifecycle (out of scope for this package) while still letting the
// pacer worker honor the "never touch a user-owned socket" rule from
// §4.6 step 3.
type Socket interface {
	// TryLock attempts to acquire the socket's bottom-half lock without
	// blocking. It returns false if a user-context holder currently owns
	// the socket, in which case the pacer must give up for this burst
	// and retry on the next one ([ErrSocketBusy]).
	TryLock() bool

	// Unlock releases a lock acquired by a successful TryLock.
	Unlock()

	// Submitter returns the [NetworkSubmitter] to use for this socket's
	// RPCs.
	Submitter() NetworkSubmitter
}

// pacerNode is a throttled-queue node embedded, conceptually, into each
// message. A node is either detached (msg.queueNode == nil) or linked
// into exactly one position of the queue.
type pacerNode struct {
	msg    *OutgoingMessage
	socket Socket
	next   *pacerNode
}

// Pacer is the SRMF-ordered queue of throttled messages plus the single
// worker goroutine that drains it. The zero value is invalid; use
// [NewPacer]. NewPacer starts the worker goroutine immediately, mirroring
// [NewLink]'s "construction starts background work" convention; call
// [Pacer.Stop] to shut it down.
type Pacer struct {
	engine *Engine

	mu   sync.Mutex
	head *pacerNode

	wake chan struct{}
	done chan struct{}
	exit chan struct{}
	once sync.Once
}

// NewPacer creates a [Pacer] bound to engine and starts its worker
// goroutine.
func NewPacer(engine *Engine) *Pacer {
	p := &Pacer{
		engine: engine,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		exit:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Enqueue inserts msg into the throttled queue in ascending-remaining-
// bytes order (ties broken by FIFO), unless msg is already linked, in
// which case Enqueue is a no-op (§4.5). socket is the collaborator the
// pacer worker will use to lock and resume this message later.
func (p *Pacer) Enqueue(msg *OutgoingMessage, socket Socket) {
	if msg.queueNode != nil {
		return
	}

	node := &pacerNode{msg: msg, socket: socket}

	p.mu.Lock()
	remaining := msg.Remaining()
	if p.head == nil || p.head.msg.Remaining() > remaining {
		node.next = p.head
		p.head = node
	} else {
		cur := p.head
		for cur.next != nil && cur.next.msg.Remaining() <= remaining {
			cur = cur.next
		}
		node.next = cur.next
		cur.next = node
	}
	msg.queueNode = node
	p.mu.Unlock()

	p.signal()
}

// Remove unlinks msg from the queue if present, regardless of its
// position. This is used by message cancellation (§5): the caller must
// call Remove before releasing the message's packet chain.
func (p *Pacer) Remove(msg *OutgoingMessage) {
	if msg.queueNode == nil {
		return
	}
	p.mu.Lock()
	p.unlink(msg)
	p.mu.Unlock()
}

// unlink removes msg's node from the list. Callers must hold p.mu.
func (p *Pacer) unlink(msg *OutgoingMessage) {
	node := msg.queueNode
	if node == nil {
		return
	}
	if p.head == node {
		p.head = node.next
	} else {
		for cur := p.head; cur != nil; cur = cur.next {
			if cur.next == node {
				cur.next = node.next
				break
			}
		}
	}
	// Re-initialize the detached node. This is only safe because the
	// pacer exclusively consumes the head rather than traversing the
	// list; a future change to pacer iteration must not assume this
	// holds in general (see design notes).
	node.next = nil
	msg.queueNode = nil
}

// peekHead returns a snapshot of the head node, or nil if the queue is
// empty. A concurrent Enqueue may not yet be linked when this is called;
// peekHead simply observes whatever p.head currently is and never
// follows stale forward pointers past it.
func (p *Pacer) peekHead() *pacerNode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.head
}

// signal wakes the pacer worker if it is parked. The send is
// non-blocking and idempotent: a full channel means a wakeup is already
// pending.
func (p *Pacer) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Stop causes the pacer worker to exit (waking it up if necessary) and
// waits until it has exited.
func (p *Pacer) Stop() {
	p.once.Do(func() {
		close(p.exit)
	})
	p.signal()
	<-p.done
}

// run is the pacer worker's main duty cycle (§4.6).
func (p *Pacer) run() {
	log.Infof("homa: pacer worker up")
	defer log.Infof("homa: pacer worker down")
	defer close(p.done)
	for {
		select {
		case <-p.exit:
			return
		default:
		}

		if p.peekHead() == nil {
			select {
			case <-p.exit:
				return
			case <-p.wake:
				continue
			}
		}

		p.burst()
	}
}

// burst is pacer_burst (§4.6): spin until the NIC can accept at least
// one packet's worth of work, snapshot the queue head, try to lock its
// socket, resume transmission, and detach the message if it has drained.
func (p *Pacer) burst() {
	rates := p.engine.Config.Rates()
	for {
		if p.engine.Clock.Cycles()+rates.MaxNICQueueCycles >= p.engine.Link.IdleTime() {
			break
		}
		select {
		case <-p.exit:
			return
		default:
		}
	}

	node := p.peekHead()
	if node == nil {
		return
	}

	if !node.socket.TryLock() {
		// SOCKET_BUSY: give up for this burst, retry next time.
		return
	}
	defer node.socket.Unlock()

	p.engine.TransmitReady(node.msg, node.socket)

	if node.msg.NextOffset >= node.msg.Granted || node.msg.NextPacket() == nil {
		p.mu.Lock()
		p.unlink(node.msg)
		p.mu.Unlock()
	}
}
