package bsp

import (
	"fmt"
	"log"
)

// An Object is a value that can travel between peers. Blob and *Array are
// the only two kinds; the interface is closed.
type Object interface {
	isObject()
}

// A Blob is an opaque byte sequence. It travels as a single message.
type Blob []byte

func (Blob) isObject() {}

// ElemKind identifies the element type of an Array.
type ElemKind int32

// Enumeration of array element kinds.
const (
	ElemInt8 ElemKind = iota + 1
	ElemInt16
	ElemInt32
	ElemInt64
	ElemUint8
	ElemUint16
	ElemUint32
	ElemUint64
	ElemFloat32
	ElemFloat64
	ElemComplex64
	ElemComplex128
)

var elemSizes = map[ElemKind]int{
	ElemInt8:       1,
	ElemInt16:      2,
	ElemInt32:      4,
	ElemInt64:      8,
	ElemUint8:      1,
	ElemUint16:     2,
	ElemUint32:     4,
	ElemUint64:     8,
	ElemFloat32:    4,
	ElemFloat64:    8,
	ElemComplex64:  8,
	ElemComplex128: 16,
}

var elemNames = map[ElemKind]string{
	ElemInt8:       "int8",
	ElemInt16:      "int16",
	ElemInt32:      "int32",
	ElemInt64:      "int64",
	ElemUint8:      "uint8",
	ElemUint16:     "uint16",
	ElemUint32:     "uint32",
	ElemUint64:     "uint64",
	ElemFloat32:    "float32",
	ElemFloat64:    "float64",
	ElemComplex64:  "complex64",
	ElemComplex128: "complex128",
}

// Valid reports whether k is one of the defined element kinds.
func (k ElemKind) Valid() bool {
	_, ok := elemSizes[k]
	return ok
}

// Size returns the byte width of one element of kind k.
func (k ElemKind) Size() int {
	size, ok := elemSizes[k]
	if !ok {
		log.Panicf("invalid element kind %d", int32(k))
	}

	return size
}

func (k ElemKind) String() string {
	name, ok := elemNames[k]
	if !ok {
		return fmt.Sprintf("unknown(%d)", int32(k))
	}

	return name
}

// An Array is a typed rectangular array. Its elements live in a flat
// backing buffer. A freshly received array is always contiguous and
// row-major; an array built over an existing buffer may carry explicit
// byte strides, in which case it is copied to contiguous form before it is
// sent.
type Array struct {
	kind    ElemKind
	dims    []int
	strides []int
	data    []byte
}

func (*Array) isObject() {}

// NewArray allocates a fresh, zeroed, contiguous array. It panics on an
// invalid element kind or a negative dimension.
func NewArray(kind ElemKind, dims []int) *Array {
	count := mustElemCount(kind, dims)

	a := &Array{
		kind: kind,
		dims: append([]int(nil), dims...),
		data: make([]byte, count*kind.Size()),
	}

	return a
}

// NewArrayFromData builds a contiguous array over an existing row-major
// buffer. It panics if the buffer size does not match the shape.
func NewArrayFromData(kind ElemKind, dims []int, data []byte) *Array {
	count := mustElemCount(kind, dims)
	if len(data) != count*kind.Size() {
		log.Panicf("array data is %d bytes, shape %v of %s needs %d",
			len(data), dims, kind, count*kind.Size())
	}

	a := &Array{
		kind: kind,
		dims: append([]int(nil), dims...),
		data: data,
	}

	return a
}

// NewStridedArray builds an array view over an existing buffer with
// explicit byte strides, one per dimension. The view may be
// non-contiguous; it is copied to contiguous form when sent.
func NewStridedArray(
	kind ElemKind,
	dims, strides []int,
	data []byte,
) *Array {
	mustElemCount(kind, dims)
	if len(strides) != len(dims) {
		log.Panicf("got %d strides for %d dimensions",
			len(strides), len(dims))
	}

	a := &Array{
		kind:    kind,
		dims:    append([]int(nil), dims...),
		strides: append([]int(nil), strides...),
		data:    data,
	}

	return a
}

// ElemKind returns the element kind of the array.
func (a *Array) ElemKind() ElemKind {
	return a.kind
}

// Dims returns the dimension sizes of the array.
func (a *Array) Dims() []int {
	return append([]int(nil), a.dims...)
}

// NumElems returns the total number of elements.
func (a *Array) NumElems() int {
	count := 1
	for _, d := range a.dims {
		count *= d
	}

	return count
}

// ByteSize returns the size of the array data in contiguous form.
func (a *Array) ByteSize() int {
	return a.NumElems() * a.kind.Size()
}

// Data returns the backing buffer of the array.
func (a *Array) Data() []byte {
	return a.data
}

// IsContiguous reports whether the array elements are packed row-major
// with no gaps.
func (a *Array) IsContiguous() bool {
	if a.strides == nil {
		return true
	}

	stride := a.kind.Size()
	for i := len(a.dims) - 1; i >= 0; i-- {
		if a.dims[i] > 1 && a.strides[i] != stride {
			return false
		}

		stride *= a.dims[i]
	}

	return true
}

// contiguousCopy gathers the elements of a into a fresh row-major buffer.
func (a *Array) contiguousCopy() *Array {
	out := NewArray(a.kind, a.dims)

	if a.strides == nil {
		copy(out.data, a.data)
		return out
	}

	elemSize := a.kind.Size()
	index := make([]int, len(a.dims))

	for dst := 0; dst < len(out.data); dst += elemSize {
		src := 0
		for d, i := range index {
			src += i * a.strides[d]
		}

		copy(out.data[dst:dst+elemSize], a.data[src:src+elemSize])

		for d := len(index) - 1; d >= 0; d-- {
			index[d]++
			if index[d] < a.dims[d] {
				break
			}
			index[d] = 0
		}
	}

	return out
}

func mustElemCount(kind ElemKind, dims []int) int {
	if !kind.Valid() {
		log.Panicf("invalid element kind %d", int32(kind))
	}

	count := 1
	for _, d := range dims {
		if d < 0 {
			log.Panicf("negative dimension %d in %v", d, dims)
		}
		count *= d
	}

	return count
}
