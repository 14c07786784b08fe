package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dmcache/timing/cache"
)

var _ = Describe("Storage", func() {
	It("should start with every line invalid", func() {
		s := cache.NewStorage(cache.DefaultConfig())

		Expect(s.NumLines()).To(Equal(4))
		for i := 0; i < s.NumLines(); i++ {
			Expect(s.Line(i).Valid).To(BeFalse())
		}
	})

	It("should size the array from the index width", func() {
		s := cache.NewStorage(cache.Config{
			AddressWidth: 8,
			IndexWidth:   5,
			DataWidth:    8,
		})

		Expect(s.NumLines()).To(Equal(32))
		Expect(s.Lines()).To(HaveLen(32))
	})

	It("should map an address to the line of its low bits", func() {
		c := cache.New(cache.Config{AddressWidth: 4, IndexWidth: 2, DataWidth: 2})
		c.Write(0b1110, 1)

		line := c.Peek(0b0010)
		Expect(line.Valid).To(BeTrue())
		Expect(line.Tag).To(Equal(uint64(0b11)))
		Expect(c.Snapshot()[2]).To(Equal(line))
	})
})
