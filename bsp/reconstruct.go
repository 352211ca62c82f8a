package bsp

import (
	"encoding/binary"
	"fmt"
)

// produceNext assembles the next application object from the superstep
// queue. The bool result reports whether an object was produced; false
// with a nil error means the queue is drained.
//
// The cursor walks forward over the staged messages. A blob is complete in
// one message. An array starts with a header message; its data message is
// located by source pid and sequence number and may sit anywhere later in
// the queue, with unrelated messages in between. Array-data messages
// encountered before their header is current are skipped and found again
// by the header's scan.
func (q *superstepQueue) produceNext() (Object, bool, error) {
	if err := q.collectIfNeeded(); err != nil {
		return nil, false, err
	}

	for q.nextIndex < len(q.msgs) {
		msg := &q.msgs[q.nextIndex]

		switch msg.tag.Kind {
		case StringTag:
			q.nextIndex++
			q.remaining--
			return Blob(msg.payload), true, nil

		case ArrayTypeTag:
			arr, adjacent, err := q.assembleArray(msg)
			if adjacent {
				q.nextIndex++
			}
			q.nextIndex++
			q.remaining--

			if err != nil {
				return nil, false, err
			}

			return arr, true, nil

		case ArrayDataTag:
			// Belongs to a header that is not current yet.
			if q.dataScanStart == 0 {
				q.dataScanStart = q.nextIndex
			}
			q.nextIndex++

		default:
			return nil, false, fmt.Errorf("%w: kind %d from pid %d",
				ErrProtocolViolation, int32(msg.tag.Kind),
				msg.tag.SourcePID)
		}
	}

	return nil, false, nil
}

// assembleArray rebuilds the array announced by the header message hdr,
// which sits at the cursor. The adjacent result reports whether the data
// message was found in the very next slot, in which case the caller
// consumes both slots at once.
func (q *superstepQueue) assembleArray(
	hdr *message,
) (arr *Array, adjacent bool, err error) {
	kind, dims, err := decodeArrayHeader(hdr.payload)
	if err != nil {
		return nil, false, err
	}

	arr = NewArray(kind, dims)

	start := q.nextIndex + 1
	if q.dataScanStart != 0 {
		start = q.dataScanStart
	}

	for i := start; i < len(q.msgs); i++ {
		m := &q.msgs[i]

		if m.tag.Kind != ArrayDataTag ||
			m.tag.SourcePID != hdr.tag.SourcePID ||
			m.tag.Seq != hdr.tag.Seq {
			continue
		}

		if len(m.payload) != len(arr.data) {
			return nil, false, fmt.Errorf(
				"%w: array data from pid %d seq %d is %d bytes, want %d",
				ErrProtocolViolation, m.tag.SourcePID, m.tag.Seq,
				len(m.payload), len(arr.data))
		}

		copy(arr.data, m.payload)

		return arr, i == q.nextIndex+1, nil
	}

	return nil, false, fmt.Errorf("%w: header from pid %d seq %d",
		ErrMissingArrayData, hdr.tag.SourcePID, hdr.tag.Seq)
}

// encodeArrayHeader renders the header payload for an array: the element
// kind followed by the dimension sizes, all as little-endian int32s. The
// number of dimensions is recovered from the payload length.
func encodeArrayHeader(a *Array) []byte {
	buf := make([]byte, 4*(len(a.dims)+1))

	binary.LittleEndian.PutUint32(buf[0:4], uint32(a.kind))
	for i, d := range a.dims {
		binary.LittleEndian.PutUint32(buf[4*(i+1):], uint32(d))
	}

	return buf
}

func decodeArrayHeader(payload []byte) (ElemKind, []int, error) {
	if len(payload) < 4 || len(payload)%4 != 0 {
		return 0, nil, fmt.Errorf("%w: array header is %d bytes",
			ErrProtocolViolation, len(payload))
	}

	kind := ElemKind(binary.LittleEndian.Uint32(payload[0:4]))
	if !kind.Valid() {
		return 0, nil, fmt.Errorf("%w: element kind %d",
			ErrProtocolViolation, int32(kind))
	}

	numDims := len(payload)/4 - 1
	dims := make([]int, numDims)
	for i := range dims {
		d := int32(binary.LittleEndian.Uint32(payload[4*(i+1):]))
		if d < 0 {
			return 0, nil, fmt.Errorf("%w: dimension %d is %d",
				ErrProtocolViolation, i, d)
		}
		dims[i] = int(d)
	}

	return kind, dims, nil
}
