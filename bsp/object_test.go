package bsp

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Array", func() {
	It("should allocate a zeroed contiguous array", func() {
		a := NewArray(ElemInt32, []int{2, 3})

		Expect(a.ElemKind()).To(Equal(ElemInt32))
		Expect(a.Dims()).To(Equal([]int{2, 3}))
		Expect(a.NumElems()).To(Equal(6))
		Expect(a.ByteSize()).To(Equal(24))
		Expect(a.Data()).To(Equal(make([]byte, 24)))
		Expect(a.IsContiguous()).To(BeTrue())
	})

	It("should treat a zero-dimensional array as a scalar", func() {
		a := NewArray(ElemFloat64, nil)

		Expect(a.NumElems()).To(Equal(1))
		Expect(a.ByteSize()).To(Equal(8))
	})

	It("should build over an existing buffer", func() {
		data := []byte{1, 2, 3, 4}
		a := NewArrayFromData(ElemUint8, []int{4}, data)

		Expect(a.Data()).To(Equal(data))
	})

	It("should panic on a buffer of the wrong size", func() {
		Expect(func() {
			NewArrayFromData(ElemInt16, []int{3}, make([]byte, 5))
		}).To(Panic())
	})

	It("should panic on an invalid element kind", func() {
		Expect(func() { NewArray(ElemKind(0), []int{1}) }).To(Panic())
	})

	It("should panic on a negative dimension", func() {
		Expect(func() { NewArray(ElemInt8, []int{2, -1}) }).To(Panic())
	})

	It("should recognize row-major strides as contiguous", func() {
		data := make([]byte, 24)
		a := NewStridedArray(ElemInt32, []int{2, 3}, []int{12, 4}, data)

		Expect(a.IsContiguous()).To(BeTrue())
	})

	It("should recognize gapped strides as non-contiguous", func() {
		data := make([]byte, 8)
		a := NewStridedArray(ElemUint8, []int{4}, []int{2}, data)

		Expect(a.IsContiguous()).To(BeFalse())
	})

	It("should gather a strided view into a contiguous copy", func() {
		data := []byte{10, 0, 11, 0, 12, 0, 13, 0}
		a := NewStridedArray(ElemUint8, []int{4}, []int{2}, data)

		c := a.contiguousCopy()
		Expect(c.IsContiguous()).To(BeTrue())
		Expect(c.Data()).To(Equal([]byte{10, 11, 12, 13}))
		Expect(a.Data()).To(Equal(data))
	})

	It("should gather a transposed view correctly", func() {
		// 2x2 uint8 matrix {{1,2},{3,4}} stored row-major, viewed
		// transposed via strides.
		data := []byte{1, 2, 3, 4}
		transposed := NewStridedArray(ElemUint8, []int{2, 2}, []int{1, 2}, data)

		c := transposed.contiguousCopy()
		Expect(c.Data()).To(Equal([]byte{1, 3, 2, 4}))
	})

	It("should copy its dimensions defensively", func() {
		dims := []int{2, 2}
		a := NewArray(ElemInt8, dims)

		dims[0] = 99
		Expect(a.Dims()).To(Equal([]int{2, 2}))

		a.Dims()[0] = 42
		Expect(a.Dims()).To(Equal([]int{2, 2}))
	})
})

var _ = Describe("ElemKind", func() {
	It("should know the element sizes", func() {
		Expect(ElemInt8.Size()).To(Equal(1))
		Expect(ElemInt64.Size()).To(Equal(8))
		Expect(ElemFloat32.Size()).To(Equal(4))
		Expect(ElemComplex128.Size()).To(Equal(16))
	})

	It("should reject invalid kinds", func() {
		Expect(ElemKind(0).Valid()).To(BeFalse())
		Expect(ElemKind(999).Valid()).To(BeFalse())
		Expect(func() { ElemKind(999).Size() }).To(Panic())
	})
})
