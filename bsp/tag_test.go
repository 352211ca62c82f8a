package bsp

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Tag", func() {
	It("should round-trip through the wire form", func() {
		tag := Tag{
			Kind:      ArrayDataTag,
			SourcePID: 3,
			Seq:       41,
		}

		buf := EncodeTag(tag)
		Expect(buf).To(HaveLen(TagBytes))

		decoded, err := DecodeTag(buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(decoded).To(Equal(tag))
	})

	It("should encode little-endian fields", func() {
		buf := EncodeTag(Tag{Kind: StringTag, SourcePID: 258, Seq: 1})

		Expect(buf[0]).To(Equal(byte(1)))
		Expect(buf[4]).To(Equal(byte(2)))
		Expect(buf[5]).To(Equal(byte(1)))
		Expect(buf[8]).To(Equal(byte(1)))
	})

	It("should reject a tag of the wrong width", func() {
		_, err := DecodeTag(make([]byte, TagBytes-1))
		Expect(err).To(MatchError(ErrProtocolViolation))

		_, err = DecodeTag(make([]byte, TagBytes+4))
		Expect(err).To(MatchError(ErrProtocolViolation))
	})

	It("should name the kinds", func() {
		Expect(StringTag.String()).To(Equal("string"))
		Expect(ArrayTypeTag.String()).To(Equal("array-type"))
		Expect(ArrayDataTag.String()).To(Equal("array-data"))
		Expect(TagKind(99).String()).To(ContainSubstring("unknown"))
	})
})
