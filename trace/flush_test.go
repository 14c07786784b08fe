package trace

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Automatic flush", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should report a failed CSV flush and not repeat written rows", func() {
		w := NewCSVWriter(filepath.Join(dir, "trace.csv"))
		Expect(w.Init()).To(Succeed())
		w.bufferSize = 2

		w.Write(Record{Cycle: 1})
		Expect(w.file.Close()).To(Succeed())
		w.Write(Record{Cycle: 2})

		Expect(w.records).To(BeEmpty())
		Expect(w.Flush()).To(MatchError(ContainSubstring("failed to flush trace file")))
	})

	It("should write each CSV row once across automatic flushes", func() {
		path := filepath.Join(dir, "rows.csv")
		w := NewCSVWriter(path)
		Expect(w.Init()).To(Succeed())
		w.bufferSize = 2

		for cycle := uint64(1); cycle <= 5; cycle++ {
			w.Write(Record{Cycle: cycle})
		}
		Expect(w.Close()).To(Succeed())

		content, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.Count(string(content), "\n")).To(Equal(6))
	})

	It("should report a failed SQLite flush and keep the batch", func() {
		w := NewSQLiteWriter(filepath.Join(dir, "trace.sqlite3"))
		Expect(w.Init()).To(Succeed())
		w.batchSize = 1

		_ = w.DB.Close()
		w.Write(Record{Cycle: 1})

		Expect(w.records).To(HaveLen(1))
		Expect(w.Flush()).To(MatchError(ContainSubstring("failed to begin transaction")))
	})
})
