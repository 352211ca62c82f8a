package membus_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/lockstep/membus"
)

const tagWidth = 12

// syncAll drives every endpoint of the bus through one barrier.
func syncAll(bus *membus.Bus) {
	var wg sync.WaitGroup
	for pid := 0; pid < bus.NumPeers(); pid++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			bus.Endpoint(pid).Barrier()
		}(pid)
	}
	wg.Wait()
}

var _ = Describe("Bus", func() {
	var bus *membus.Bus

	BeforeEach(func() {
		bus = membus.MakeBuilder().
			WithNumPeers(3).
			Build()
		bus.Endpoint(0).ConfigureTagWidth(tagWidth)
	})

	tag := func(b byte) []byte {
		t := make([]byte, tagWidth)
		t[0] = b
		return t
	}

	It("should expose pids and peer count", func() {
		Expect(bus.NumPeers()).To(Equal(3))
		Expect(bus.Endpoint(2).ProcessID()).To(Equal(2))
		Expect(bus.Endpoint(2).ProcessCount()).To(Equal(3))
	})

	It("should panic when built without peers", func() {
		Expect(func() {
			membus.MakeBuilder().WithNumPeers(0).Build()
		}).To(Panic())
	})

	It("should accept sends right away with a default tag width", func() {
		fresh := membus.MakeBuilder().
			WithNumPeers(2).
			WithDefaultTagWidth(tagWidth).
			Build()

		err := fresh.Endpoint(0).Send(1, tag(1), []byte("x"))
		Expect(err).ToNot(HaveOccurred())
	})

	It("should accept a repeated, identical tag width", func() {
		Expect(func() {
			bus.Endpoint(1).ConfigureTagWidth(tagWidth)
		}).ToNot(Panic())
	})

	It("should panic on a conflicting tag width", func() {
		Expect(func() {
			bus.Endpoint(1).ConfigureTagWidth(tagWidth + 4)
		}).To(Panic())
	})

	It("should reject a send before the tag width is configured", func() {
		fresh := membus.MakeBuilder().WithNumPeers(2).Build()

		err := fresh.Endpoint(0).Send(1, tag(1), []byte("x"))
		Expect(err).To(HaveOccurred())
	})

	It("should reject a tag of the wrong width", func() {
		err := bus.Endpoint(0).Send(1, make([]byte, tagWidth-1), []byte("x"))
		Expect(err).To(HaveOccurred())
	})

	It("should reject an out-of-range destination", func() {
		err := bus.Endpoint(0).Send(3, tag(1), []byte("x"))
		Expect(err).To(HaveOccurred())

		err = bus.Endpoint(0).Send(-1, tag(1), []byte("x"))
		Expect(err).To(HaveOccurred())
	})

	It("should hide messages until the barrier trips", func() {
		Expect(bus.Endpoint(0).Send(1, tag(1), []byte("hello"))).To(Succeed())

		count, bytes := bus.Endpoint(1).QueueSize()
		Expect(count).To(Equal(0))
		Expect(bytes).To(Equal(0))

		syncAll(bus)

		count, bytes = bus.Endpoint(1).QueueSize()
		Expect(count).To(Equal(1))
		Expect(bytes).To(Equal(5))

		gotTag, payload, err := bus.Endpoint(1).PopMessage()
		Expect(err).ToNot(HaveOccurred())
		Expect(gotTag).To(Equal(tag(1)))
		Expect(payload).To(Equal([]byte("hello")))

		_, _, err = bus.Endpoint(1).PopMessage()
		Expect(err).To(MatchError(membus.ErrEmptyQueue))
	})

	It("should preserve per-sender order and merge senders by pid", func() {
		Expect(bus.Endpoint(2).Send(1, tag(21), []byte("a"))).To(Succeed())
		Expect(bus.Endpoint(2).Send(1, tag(22), []byte("b"))).To(Succeed())
		Expect(bus.Endpoint(0).Send(1, tag(1), []byte("c"))).To(Succeed())

		syncAll(bus)

		var tags []byte
		for {
			gotTag, _, err := bus.Endpoint(1).PopMessage()
			if err != nil {
				break
			}
			tags = append(tags, gotTag[0])
		}

		Expect(tags).To(Equal([]byte{1, 21, 22}))
	})

	It("should copy buffers on send", func() {
		payload := []byte("abc")
		Expect(bus.Endpoint(0).Send(1, tag(1), payload)).To(Succeed())
		payload[0] = 'z'

		syncAll(bus)

		_, got, err := bus.Endpoint(1).PopMessage()
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(Equal([]byte("abc")))
	})

	It("should discard unretrieved messages at the next barrier", func() {
		Expect(bus.Endpoint(0).Send(1, tag(1), []byte("stale"))).To(Succeed())

		syncAll(bus)
		syncAll(bus)

		count, _ := bus.Endpoint(1).QueueSize()
		Expect(count).To(Equal(0))
	})

	It("should keep superstep boundaries apart", func() {
		Expect(bus.Endpoint(0).Send(1, tag(1), []byte("first"))).To(Succeed())
		syncAll(bus)

		// Sent during the next superstep; must not be visible yet.
		Expect(bus.Endpoint(0).Send(1, tag(2), []byte("second"))).To(Succeed())

		count, _ := bus.Endpoint(1).QueueSize()
		Expect(count).To(Equal(1))

		syncAll(bus)

		gotTag, payload, err := bus.Endpoint(1).PopMessage()
		Expect(err).ToNot(HaveOccurred())
		Expect(gotTag[0]).To(Equal(byte(2)))
		Expect(payload).To(Equal([]byte("second")))
	})
})
