package bsp

// A Transport physically moves tagged messages between peers and provides
// the barrier primitive. It must guarantee that a message sent during
// superstep N becomes retrievable at its destination only after the
// destination's own Barrier call for N returns, and that messages from one
// sender arrive in send order. Interleaving between different senders is
// transport-defined.
type Transport interface {
	// ProcessID returns the pid of the local peer. Stable for the run.
	ProcessID() int

	// ProcessCount returns the number of peers. Stable for the run.
	ProcessCount() int

	// ConfigureTagWidth fixes the tag byte width for the rest of the run.
	// All peers must agree on the same width before the first message is
	// exchanged.
	ConfigureTagWidth(nbytes int)

	// Send queues a tagged payload for delivery to dst.
	Send(dst int, tag, payload []byte) error

	// QueueSize reports the number of currently retrievable messages and
	// their total payload bytes.
	QueueSize() (msgCount, totalBytes int)

	// PopMessage removes and returns the next retrievable message.
	// Ownership of both slices transfers to the caller.
	PopMessage() (tag, payload []byte, err error)

	// Barrier blocks until every peer has entered the barrier for the
	// current superstep. There is no timeout and no cancellation; a peer
	// that never arrives stalls the whole run.
	Barrier()
}
