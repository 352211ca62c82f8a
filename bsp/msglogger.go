package bsp

import "log"

// MsgLogger is a hook that logs every physical message crossing a session
// boundary.
type MsgLogger struct {
	LogHookBase
}

// NewMsgLogger returns a new MsgLogger which will write into the logger.
func NewMsgLogger(logger *log.Logger) *MsgLogger {
	h := new(MsgLogger)
	h.Logger = logger
	return h
}

// Func writes the message information into the logger.
func (h *MsgLogger) Func(ctx HookCtx) {
	sample, ok := ctx.Item.(TrafficSample)
	if !ok {
		return
	}

	h.Logger.Printf("%d,%s,%s,%d,%d,%d,%d\n",
		sample.Superstep,
		ctx.Pos.Name,
		sample.Tag.Kind,
		sample.Src,
		sample.Dst,
		sample.Tag.Seq,
		sample.Bytes)
}
