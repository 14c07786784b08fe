package cache_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dmcache/timing/cache"
)

var _ = Describe("Config", func() {
	It("should default to four untagged lines of two bits", func() {
		config := cache.DefaultConfig()

		Expect(config.Validate()).To(Succeed())
		Expect(config.NumLines()).To(Equal(4))
		Expect(config.TagWidth()).To(Equal(uint(0)))
		Expect(config.AddressMask()).To(Equal(uint64(0x3)))
		Expect(config.DataMask()).To(Equal(uint64(0x3)))
	})

	It("should split an address into index and tag", func() {
		config := cache.Config{AddressWidth: 6, IndexWidth: 2, DataWidth: 8}

		Expect(config.TagWidth()).To(Equal(uint(4)))
		Expect(config.Index(0b101110)).To(Equal(2))
		Expect(config.Tag(0b101110)).To(Equal(uint64(0b1011)))
	})

	It("should cover the full word for 64-bit data", func() {
		config := cache.Config{AddressWidth: 2, IndexWidth: 2, DataWidth: 64}
		Expect(config.DataMask()).To(Equal(^uint64(0)))
	})

	DescribeTable("should reject invalid geometry",
		func(config cache.Config, msg string) {
			err := config.Validate()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(msg))
		},
		Entry("zero address width", cache.Config{IndexWidth: 1, DataWidth: 1}, "address_width"),
		Entry("zero index width", cache.Config{AddressWidth: 1, DataWidth: 1}, "index_width"),
		Entry("index wider than address", cache.Config{AddressWidth: 1, IndexWidth: 2, DataWidth: 1}, "index_width"),
		Entry("zero data width", cache.Config{AddressWidth: 2, IndexWidth: 2}, "data_width"),
		Entry("data too wide", cache.Config{AddressWidth: 2, IndexWidth: 2, DataWidth: 65}, "data_width"),
		Entry("address too wide", cache.Config{AddressWidth: 33, IndexWidth: 2, DataWidth: 2}, "address_width"),
	)

	Describe("Files", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("should round-trip through SaveConfig and LoadConfig", func() {
			path := filepath.Join(dir, "cache.json")
			config := cache.Config{AddressWidth: 4, IndexWidth: 3, DataWidth: 8}

			Expect(config.SaveConfig(path)).To(Succeed())

			loaded, err := cache.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(config))
		})

		It("should keep defaults for missing fields", func() {
			path := filepath.Join(dir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"data_width": 8}`), 0644)).To(Succeed())

			loaded, err := cache.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.AddressWidth).To(Equal(uint(2)))
			Expect(loaded.DataWidth).To(Equal(uint(8)))
		})

		It("should reject an invalid file", func() {
			path := filepath.Join(dir, "bad.json")
			Expect(os.WriteFile(path, []byte(`{"index_width": 3}`), 0644)).To(Succeed())

			_, err := cache.LoadConfig(path)
			Expect(err).To(MatchError(ContainSubstring("index_width must be <= address_width")))
		})

		It("should report a missing file", func() {
			_, err := cache.LoadConfig(filepath.Join(dir, "missing.json"))
			Expect(err).To(MatchError(ContainSubstring("failed to read cache config file")))
		})
	})
})
