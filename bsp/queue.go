package bsp

import "fmt"

// A message is one received (tag, payload) pair staged in the superstep
// queue. The queue owns both slices until it is reset.
type message struct {
	tag     Tag
	payload []byte
}

// superstepQueue stages the messages received in the current superstep and
// tracks the reconstruction cursor. It is exclusively owned by the local
// peer; no other goroutine ever touches it.
type superstepQueue struct {
	transport Transport

	primed    bool
	msgs      []message
	remaining int

	// nextIndex is the position of the next unconsumed message.
	nextIndex int

	// dataScanStart remembers the index of the first array-data message
	// that was skipped ahead of its header. Zero means none was seen; a
	// data message can never sit at index 0 because its header always
	// precedes it in the same sender's FIFO.
	dataScanStart int

	// onCollected, when set, is called once for each staged message.
	onCollected func(m *message)
}

// collectIfNeeded materializes the queue for the current superstep. It is
// idempotent within a superstep. On failure the queue stays unprimed and
// keeps the messages pulled so far, so the caller may retry; the transport
// reports only the messages still retrievable.
func (q *superstepQueue) collectIfNeeded() error {
	if q.primed {
		return nil
	}

	count, _ := q.transport.QueueSize()
	if q.msgs == nil {
		q.msgs = make([]message, 0, count)
	}

	for i := 0; i < count; i++ {
		rawTag, payload, err := q.transport.PopMessage()
		if err != nil {
			return fmt.Errorf("collecting superstep queue: %w", err)
		}

		tag, err := DecodeTag(rawTag)
		if err != nil {
			return err
		}

		q.msgs = append(q.msgs, message{tag: tag, payload: payload})

		if q.onCollected != nil {
			q.onCollected(&q.msgs[len(q.msgs)-1])
		}
	}

	q.remaining = 0
	for _, m := range q.msgs {
		if m.tag.Kind == StringTag || m.tag.Kind == ArrayTypeTag {
			q.remaining++
		}
	}

	q.nextIndex = 0
	q.dataScanStart = 0
	q.primed = true

	return nil
}

// remainingObjectCount returns the number of objects that have not been
// produced yet.
func (q *superstepQueue) remainingObjectCount() (int, error) {
	if err := q.collectIfNeeded(); err != nil {
		return 0, err
	}

	return q.remaining, nil
}

// reset discards the queue storage and zeroes all cursors. Sync calls it
// before entering the barrier so that no stale state survives into the
// next superstep.
func (q *superstepQueue) reset() {
	q.primed = false
	q.msgs = nil
	q.remaining = 0
	q.nextIndex = 0
	q.dataScanStart = 0
}
