package trace

import (
	"github.com/rs/xid"

	"github.com/sarchlab/lockstep/bsp"
)

// A Tracer converts session hook invocations into recorder samples.
type Tracer struct {
	recorder Recorder
}

// NewTracer creates a tracer that feeds the given recorder.
func NewTracer(recorder Recorder) *Tracer {
	return &Tracer{
		recorder: recorder,
	}
}

// CollectTraffic attaches a tracer for the recorder to the session, so
// that every message the session sends or collects is recorded.
func CollectTraffic(s *bsp.Session, recorder Recorder) {
	s.AcceptHook(NewTracer(recorder))
}

// Func records one sample per physical message. Other hook positions are
// ignored.
func (t *Tracer) Func(ctx bsp.HookCtx) {
	sample, ok := ctx.Item.(bsp.TrafficSample)
	if !ok {
		return
	}

	var direction string
	switch ctx.Pos {
	case bsp.HookPosMsgSend:
		direction = "send"
	case bsp.HookPosMsgCollected:
		direction = "recv"
	default:
		return
	}

	t.recorder.Record(Sample{
		ID:        xid.New().String(),
		Superstep: sample.Superstep,
		Direction: direction,
		Kind:      sample.Tag.Kind.String(),
		Src:       sample.Src,
		Dst:       sample.Dst,
		Seq:       int(sample.Tag.Seq),
		Bytes:     sample.Bytes,
	})
}
