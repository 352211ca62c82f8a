package bsp

import (
	"encoding/binary"
	"fmt"
)

// TagKind classifies a message on the wire.
type TagKind int32

// Enumeration of message kinds.
const (
	// StringTag marks a message whose payload is a complete blob.
	StringTag TagKind = iota + 1

	// ArrayTypeTag marks the header half of an array transmission. Its
	// payload describes the element kind and the dimensions.
	ArrayTypeTag

	// ArrayDataTag marks the data half of an array transmission. It is
	// correlated with its header by source pid and sequence number.
	ArrayDataTag
)

func (k TagKind) String() string {
	switch k {
	case StringTag:
		return "string"
	case ArrayTypeTag:
		return "array-type"
	case ArrayDataTag:
		return "array-data"
	}

	return fmt.Sprintf("unknown(%d)", int32(k))
}

// TagBytes is the fixed wire width of a Tag. Every peer configures this
// width with its transport once, before the first send, and it stays
// constant for the whole run.
const TagBytes = 12

// A Tag is the fixed-size header attached to every message.
type Tag struct {
	Kind      TagKind
	SourcePID int32

	// Seq correlates the two halves of an array transmission. It is
	// meaningful for array kinds only.
	Seq int32
}

// EncodeTag renders a tag into its little-endian wire form.
func EncodeTag(t Tag) []byte {
	buf := make([]byte, TagBytes)

	binary.LittleEndian.PutUint32(buf[0:4], uint32(t.Kind))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(t.SourcePID))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(t.Seq))

	return buf
}

// DecodeTag parses a wire-form tag. The input must be exactly TagBytes
// long.
func DecodeTag(buf []byte) (Tag, error) {
	if len(buf) != TagBytes {
		return Tag{}, fmt.Errorf("%w: tag is %d bytes, want %d",
			ErrProtocolViolation, len(buf), TagBytes)
	}

	t := Tag{
		Kind:      TagKind(binary.LittleEndian.Uint32(buf[0:4])),
		SourcePID: int32(binary.LittleEndian.Uint32(buf[4:8])),
		Seq:       int32(binary.LittleEndian.Uint32(buf[8:12])),
	}

	return t, nil
}
