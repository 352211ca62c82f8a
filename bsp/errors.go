package bsp

import "errors"

// Error kinds reported by the messaging layer. Callers distinguish them
// with errors.Is.
var (
	// ErrInvalidDestination is returned when a destination pid is outside
	// [0, ProcessCount).
	ErrInvalidDestination = errors.New("pid outside allowed range")

	// ErrUnsupportedType is returned when an object is neither a Blob nor
	// an Array.
	ErrUnsupportedType = errors.New("can send only blobs and arrays")

	// ErrOutOfMemory is returned when the layer cannot acquire the
	// resources it needs to stage or rebuild messages. The superstep queue
	// is left unmaterialized, so collection can be retried.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrMissingArrayData is returned when an array header has no
	// correlated data message anywhere in the superstep queue.
	ErrMissingArrayData = errors.New("no array data found")

	// ErrProtocolViolation is returned when a message cannot be understood,
	// such as an unknown tag kind or a malformed array header.
	ErrProtocolViolation = errors.New("illegal tag value")
)
