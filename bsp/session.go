package bsp

import "fmt"

// A TrafficSample describes one physical message crossing the session
// boundary. It is the Item attached to HookPosMsgSend and
// HookPosMsgCollected invocations.
type TrafficSample struct {
	Superstep int
	Tag       Tag
	Src, Dst  int
	Bytes     int
}

// A Session is the per-peer entry point to the messaging layer. It owns
// the superstep queue, the reconstruction cursor, and the send sequence
// counter. A session must be driven by a single goroutine; peers
// coordinate exclusively through the transport.
type Session struct {
	HookableBase

	transport Transport

	queue         superstepQueue
	arrayCounter  int32
	superstep     int
	tagConfigured bool
}

// SessionBuilder builds sessions.
type SessionBuilder struct {
	transport Transport
}

// MakeSessionBuilder returns a builder with default parameters.
func MakeSessionBuilder() SessionBuilder {
	return SessionBuilder{}
}

// WithTransport sets the transport that the session communicates through.
func (b SessionBuilder) WithTransport(t Transport) SessionBuilder {
	b.transport = t
	return b
}

// Build creates the session.
func (b SessionBuilder) Build() *Session {
	if b.transport == nil {
		panic("session must have a transport")
	}

	s := &Session{
		transport: b.transport,
	}
	s.queue.transport = b.transport
	s.queue.onCollected = s.msgCollected

	return s
}

// ProcessID returns the pid of the local peer.
func (s *Session) ProcessID() int {
	return s.transport.ProcessID()
}

// ProcessCount returns the number of peers in the run.
func (s *Session) ProcessCount() int {
	return s.transport.ProcessCount()
}

// Superstep returns the number of completed Sync calls.
func (s *Session) Superstep() int {
	return s.superstep
}

// Send transmits obj to the peer dst. The object becomes visible to dst
// only after both peers complete their next Sync. A blob travels as one
// message. An array travels as a header message and a data message that
// share a sequence number; a non-contiguous array is copied to contiguous
// form first, leaving the original untouched.
func (s *Session) Send(obj Object, dst int) error {
	if dst < 0 || dst >= s.transport.ProcessCount() {
		return fmt.Errorf("%w: %d", ErrInvalidDestination, dst)
	}

	s.ensureTagWidth()

	switch o := obj.(type) {
	case Blob:
		return s.sendBlob(o, dst)
	case *Array:
		return s.sendArray(o, dst)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, obj)
	}
}

func (s *Session) sendBlob(b Blob, dst int) error {
	tag := Tag{
		Kind:      StringTag,
		SourcePID: int32(s.ProcessID()),
	}

	if err := s.transport.Send(dst, EncodeTag(tag), b); err != nil {
		return err
	}

	s.hookMsg(HookPosMsgSend, tag, dst, len(b))

	return nil
}

func (s *Session) sendArray(a *Array, dst int) error {
	if !a.IsContiguous() {
		a = a.contiguousCopy()
	}

	seq := s.arrayCounter
	s.arrayCounter++

	headerTag := Tag{
		Kind:      ArrayTypeTag,
		SourcePID: int32(s.ProcessID()),
		Seq:       seq,
	}
	header := encodeArrayHeader(a)
	if err := s.transport.Send(dst, EncodeTag(headerTag), header); err != nil {
		return err
	}
	s.hookMsg(HookPosMsgSend, headerTag, dst, len(header))

	dataTag := Tag{
		Kind:      ArrayDataTag,
		SourcePID: int32(s.ProcessID()),
		Seq:       seq,
	}
	if err := s.transport.Send(dst, EncodeTag(dataTag), a.data); err != nil {
		return err
	}
	s.hookMsg(HookPosMsgSend, dataTag, dst, len(a.data))

	return nil
}

// Receive produces the next object that arrived this superstep. The bool
// result reports whether an object was produced; false with a nil error
// means all objects have been consumed.
func (s *Session) Receive() (Object, bool, error) {
	obj, ok, err := s.queue.produceNext()
	if err != nil || !ok {
		return nil, ok, err
	}

	if s.NumHooks() > 0 {
		s.InvokeHook(HookCtx{
			Domain: s,
			Pos:    HookPosObjectProduced,
			Item:   obj,
		})
	}

	return obj, true, nil
}

// ReceiveAll produces every object that arrived this superstep, in
// production order. It stops at the first failure; the objects produced
// before the failure are discarded.
func (s *Session) ReceiveAll() ([]Object, error) {
	count, err := s.RemainingObjectCount()
	if err != nil {
		return nil, err
	}

	objects := make([]Object, 0, count)
	for i := 0; i < count; i++ {
		obj, ok, err := s.Receive()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		objects = append(objects, obj)
	}

	return objects, nil
}

// RemainingObjectCount returns the number of objects that arrived this
// superstep and have not been produced yet.
func (s *Session) RemainingObjectCount() (int, error) {
	return s.queue.remainingObjectCount()
}

// Sync completes the current superstep. It discards the superstep queue,
// then blocks in the transport barrier until every peer arrives. When it
// returns, everything sent before the barrier is delivered and
// collectible at its destination.
func (s *Session) Sync() {
	s.ensureTagWidth()

	if s.NumHooks() > 0 {
		s.InvokeHook(HookCtx{
			Domain: s,
			Pos:    HookPosSyncStart,
			Item:   s.superstep,
		})
	}

	s.queue.reset()
	s.transport.Barrier()
	s.superstep++

	if s.NumHooks() > 0 {
		s.InvokeHook(HookCtx{
			Domain: s,
			Pos:    HookPosSyncDone,
			Item:   s.superstep,
		})
	}
}

// SessionStats is a point-in-time snapshot of a session, for observers
// such as the monitoring server. Snapshots are advisory; taking one never
// mutates session state.
type SessionStats struct {
	PID              int
	ProcessCount     int
	Superstep        int
	QueuePrimed      bool
	StagedMessages   int
	RemainingObjects int
}

// Stats returns a snapshot of the session.
func (s *Session) Stats() SessionStats {
	return SessionStats{
		PID:              s.ProcessID(),
		ProcessCount:     s.ProcessCount(),
		Superstep:        s.superstep,
		QueuePrimed:      s.queue.primed,
		StagedMessages:   len(s.queue.msgs),
		RemainingObjects: s.queue.remaining,
	}
}

func (s *Session) ensureTagWidth() {
	if s.tagConfigured {
		return
	}

	s.transport.ConfigureTagWidth(TagBytes)
	s.tagConfigured = true
}

func (s *Session) msgCollected(m *message) {
	s.hookMsg(HookPosMsgCollected, m.tag, s.ProcessID(), len(m.payload))
}

func (s *Session) hookMsg(pos *HookPos, tag Tag, dst, bytes int) {
	if s.NumHooks() == 0 {
		return
	}

	s.InvokeHook(HookCtx{
		Domain: s,
		Pos:    pos,
		Item: TrafficSample{
			Superstep: s.superstep,
			Tag:       tag,
			Src:       int(tag.SourcePID),
			Dst:       dst,
			Bytes:     bytes,
		},
	})
}
