package bsp

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("MsgLogger", func() {
	It("should log traffic samples", func() {
		buf := new(bytes.Buffer)
		logger := NewMsgLogger(log.New(buf, "", 0))

		logger.Func(HookCtx{
			Pos: HookPosMsgSend,
			Item: TrafficSample{
				Superstep: 2,
				Tag:       Tag{Kind: ArrayDataTag, SourcePID: 0, Seq: 5},
				Src:       0,
				Dst:       1,
				Bytes:     16,
			},
		})

		Expect(buf.String()).To(
			Equal("2,MsgSend,array-data,0,1,5,16\n"))
	})

	It("should ignore items that are not traffic samples", func() {
		buf := new(bytes.Buffer)
		logger := NewMsgLogger(log.New(buf, "", 0))

		logger.Func(HookCtx{Pos: HookPosSyncDone, Item: 3})

		Expect(buf.String()).To(BeEmpty())
	})
})
