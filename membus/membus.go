package membus

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/sarchlab/lockstep/bsp"
)

// ErrEmptyQueue is returned by PopMessage when no message is retrievable.
var ErrEmptyQueue = errors.New("receive queue is empty")

// Builder builds buses.
type Builder struct {
	numPeers        int
	defaultTagWidth int
}

// MakeBuilder returns a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		numPeers: 1,
	}
}

// WithNumPeers sets the number of peers the bus connects.
func (b Builder) WithNumPeers(n int) Builder {
	b.numPeers = n
	return b
}

// WithDefaultTagWidth pre-configures the tag byte width, so that the bus
// accepts sends before any endpoint has called ConfigureTagWidth.
func (b Builder) WithDefaultTagWidth(nbytes int) Builder {
	b.defaultTagWidth = nbytes
	return b
}

// Build creates the bus and its endpoints.
func (b Builder) Build() *Bus {
	if b.numPeers < 1 {
		log.Panicf("bus must connect at least 1 peer, got %d", b.numPeers)
	}
	if b.defaultTagWidth < 0 {
		log.Panicf("tag width must not be negative, got %d",
			b.defaultTagWidth)
	}

	bus := &Bus{
		tagWidth: b.defaultTagWidth,
	}
	bus.barrier = &generationBarrier{
		parties: b.numPeers,
		onTrip:  bus.deliverAll,
	}
	bus.barrier.cond = sync.NewCond(&bus.barrier.mu)

	bus.endpoints = make([]*Endpoint, b.numPeers)
	for i := range bus.endpoints {
		bus.endpoints[i] = &Endpoint{
			bus:     bus,
			pid:     i,
			pending: make([][]stagedMsg, b.numPeers),
		}
	}

	return bus
}

// A Bus connects a fixed set of in-process peers. Endpoint i must be
// driven by exactly one goroutine. Messages that are still retrievable
// when the next barrier trips are discarded, matching the superstep
// scoping of the delivery queue.
type Bus struct {
	endpoints []*Endpoint
	barrier   *generationBarrier

	tagMu    sync.Mutex
	tagWidth int
}

// NumPeers returns the number of peers the bus connects.
func (b *Bus) NumPeers() int {
	return len(b.endpoints)
}

// Endpoint returns the transport endpoint owned by peer pid.
func (b *Bus) Endpoint(pid int) *Endpoint {
	return b.endpoints[pid]
}

func (b *Bus) configureTagWidth(nbytes int) {
	b.tagMu.Lock()
	defer b.tagMu.Unlock()

	if nbytes <= 0 {
		log.Panicf("tag width must be positive, got %d", nbytes)
	}

	if b.tagWidth != 0 && b.tagWidth != nbytes {
		log.Panicf("tag width already fixed at %d, cannot change to %d",
			b.tagWidth, nbytes)
	}

	b.tagWidth = nbytes
}

func (b *Bus) currentTagWidth() int {
	b.tagMu.Lock()
	defer b.tagMu.Unlock()

	return b.tagWidth
}

// deliverAll flips every endpoint's staged messages into its retrievable
// inbox. It runs on the goroutine of the last peer to arrive at the
// barrier, while every other peer is blocked inside Barrier, so no sends
// are in flight.
func (b *Bus) deliverAll() {
	for _, ep := range b.endpoints {
		ep.mu.Lock()

		ep.inbox = nil
		ep.inboxBytes = 0

		// Per-sender FIFO is preserved; senders are merged in ascending
		// pid order.
		for src := range ep.pending {
			for _, m := range ep.pending[src] {
				ep.inbox = append(ep.inbox, m)
				ep.inboxBytes += len(m.payload)
			}
			ep.pending[src] = nil
		}

		ep.mu.Unlock()
	}
}

type stagedMsg struct {
	tag     []byte
	payload []byte
}

// An Endpoint is the per-peer handle on the bus. It implements the
// transport contract the messaging layer is built on.
type Endpoint struct {
	bus *Bus
	pid int

	mu         sync.Mutex
	pending    [][]stagedMsg
	inbox      []stagedMsg
	inboxBytes int
}

var _ bsp.Transport = (*Endpoint)(nil)

// ProcessID returns the pid of the peer that owns this endpoint.
func (e *Endpoint) ProcessID() int {
	return e.pid
}

// ProcessCount returns the number of peers on the bus.
func (e *Endpoint) ProcessCount() int {
	return e.bus.NumPeers()
}

// ConfigureTagWidth fixes the tag byte width for the whole bus. All peers
// must agree; a conflicting width is a programming error and panics.
func (e *Endpoint) ConfigureTagWidth(nbytes int) {
	e.bus.configureTagWidth(nbytes)
}

// Send stages a tagged payload for delivery to dst at the next barrier.
// Both slices are copied, so the caller may reuse its buffers.
func (e *Endpoint) Send(dst int, tag, payload []byte) error {
	if dst < 0 || dst >= e.bus.NumPeers() {
		return fmt.Errorf("destination %d outside bus of %d peers",
			dst, e.bus.NumPeers())
	}

	width := e.bus.currentTagWidth()
	if width == 0 {
		return errors.New("tag width not configured")
	}
	if len(tag) != width {
		return fmt.Errorf("tag is %d bytes, bus fixed width is %d",
			len(tag), width)
	}

	m := stagedMsg{
		tag:     append([]byte(nil), tag...),
		payload: append([]byte(nil), payload...),
	}

	d := e.bus.endpoints[dst]
	d.mu.Lock()
	d.pending[e.pid] = append(d.pending[e.pid], m)
	d.mu.Unlock()

	return nil
}

// QueueSize reports the number of retrievable messages and their total
// payload bytes.
func (e *Endpoint) QueueSize() (msgCount, totalBytes int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.inbox), e.inboxBytes
}

// PopMessage removes and returns the next retrievable message. Ownership
// of both slices transfers to the caller.
func (e *Endpoint) PopMessage() (tag, payload []byte, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.inbox) == 0 {
		return nil, nil, ErrEmptyQueue
	}

	m := e.inbox[0]
	e.inbox = e.inbox[1:]
	e.inboxBytes -= len(m.payload)

	return m.tag, m.payload, nil
}

// Barrier blocks until every peer on the bus has entered the barrier for
// the current superstep. The last peer to arrive performs the delivery
// flip before the barrier opens.
func (e *Endpoint) Barrier() {
	e.bus.barrier.await()
}

// generationBarrier is a reusable barrier. Each trip advances the
// generation, wakes every waiter, and runs onTrip exactly once on the
// goroutine of the last arriver.
type generationBarrier struct {
	mu   sync.Mutex
	cond *sync.Cond

	parties    int
	arrived    int
	generation int

	onTrip func()
}

func (b *generationBarrier) await() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.arrived++

	if b.arrived == b.parties {
		b.onTrip()
		b.arrived = 0
		b.generation++
		b.cond.Broadcast()
		return
	}

	for gen == b.generation {
		b.cond.Wait()
	}
}
