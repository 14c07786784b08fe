package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dmcache/timing/cache"
)

var _ = Describe("Evaluate", func() {
	var config cache.Config

	BeforeEach(func() {
		config = cache.DefaultConfig()
	})

	It("should report a read hit with the stored data", func() {
		resp, update := cache.Evaluate(config,
			cache.ReadRequest(2), cache.Line{Valid: true, Data: 3})

		Expect(resp).To(Equal(cache.Response{Hit: true, Data: 3}))
		Expect(update).To(Equal(cache.Update{}))
	})

	It("should return zero data on a read miss", func() {
		resp, _ := cache.Evaluate(config,
			cache.ReadRequest(2), cache.Line{Valid: false, Data: 3})

		Expect(resp).To(Equal(cache.Response{}))
	})

	It("should always schedule the write", func() {
		for _, valid := range []bool{false, true} {
			resp, update := cache.Evaluate(config,
				cache.WriteRequest(1, 2), cache.Line{Valid: valid, Data: 1})

			Expect(resp.Hit).To(Equal(valid))
			Expect(update.Write).To(BeTrue())
			Expect(update.Address).To(Equal(uint64(1)))
			Expect(update.WriteData).To(Equal(uint64(2)))
		}
	})

	It("should do nothing for an invalid request", func() {
		req := cache.WriteRequest(1, 2)
		req.Valid = false

		resp, update := cache.Evaluate(config, req, cache.Line{Valid: true, Data: 1})

		Expect(resp).To(Equal(cache.Response{}))
		Expect(update).To(Equal(cache.Update{}))
	})

	It("should require a tag match when tags are in use", func() {
		config = cache.Config{AddressWidth: 4, IndexWidth: 2, DataWidth: 2}
		line := cache.Line{Valid: true, Tag: 1, Data: 2}

		resp, _ := cache.Evaluate(config, cache.ReadRequest(0b0110), line)
		Expect(resp).To(Equal(cache.Response{Hit: true, Data: 2}))

		resp, _ = cache.Evaluate(config, cache.ReadRequest(0b1010), line)
		Expect(resp.Hit).To(BeFalse())
	})
})

var _ = Describe("Decoder", func() {
	It("should decode the operation and truncate fields", func() {
		d := cache.NewDecoder(cache.DefaultConfig())

		Expect(d.Decode(true, true, 0x5, 0x6)).To(Equal(cache.Request{
			Valid: true, Op: cache.OpWrite, Address: 1, WriteData: 2,
		}))
		Expect(d.Decode(false, false, 3, 0)).To(Equal(cache.Request{
			Op: cache.OpRead, Address: 3,
		}))
	})

	It("should name operations", func() {
		Expect(cache.OpRead.String()).To(Equal("read"))
		Expect(cache.OpWrite.String()).To(Equal("write"))
		Expect(cache.StateResetting.String()).To(Equal("resetting"))
	})
})
