package bsp

import "log"

// HookPos describes a position within a session where hooks can be
// triggered.
type HookPos struct {
	Name string
}

// HookPosMsgSend triggers after a physical message is handed to the
// transport.
var HookPosMsgSend = &HookPos{Name: "MsgSend"}

// HookPosMsgCollected triggers when a received message is staged into the
// superstep queue.
var HookPosMsgCollected = &HookPos{Name: "MsgCollected"}

// HookPosObjectProduced triggers when the reconstruction engine completes
// an application object.
var HookPosObjectProduced = &HookPos{Name: "ObjectProduced"}

// HookPosSyncStart triggers when a peer enters Sync, before the superstep
// queue is discarded.
var HookPosSyncStart = &HookPos{Name: "SyncStart"}

// HookPosSyncDone triggers after the barrier for a superstep completes.
var HookPosSyncDone = &HookPos{Name: "SyncDone"}

// HookCtx carries the information about the site where a hook is
// triggered.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable defines an object that accepts Hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)
}

// Hook is a short piece of program that can be invoked by a hookable
// object.
type Hook interface {
	// Func determines what to do when the hook is invoked.
	Func(ctx HookCtx)
}

// A HookableBase provides the common logic for types that implement the
// Hookable interface.
type HookableBase struct {
	Hooks []Hook
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// NumHooks returns the number of registered hooks.
func (h *HookableBase) NumHooks() int {
	return len(h.Hooks)
}

// InvokeHook triggers the registered hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}

// LogHookBase provides the common logic for hooks that write into a
// logger.
type LogHookBase struct {
	*log.Logger
}
