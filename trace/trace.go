// Package trace records the pins and decoded activity of every simulated
// clock edge.
package trace

import (
	"github.com/rs/xid"
)

// Record is one clock edge as seen from the pins.
type Record struct {
	RunID string
	Cycle uint64
	// Time is the simulated time of the edge, in seconds.
	Time float64

	Ena   bool
	RstN  bool
	UIIn  uint8
	UOOut uint8

	// Op is one of "read", "write", "idle", "reset" or "disabled".
	Op      string
	Address uint64
	Hit     bool
	Data    uint64
}

// A Writer stores trace records.
type Writer interface {
	// Init prepares the destination. It must be called before Write.
	Init() error
	// Write buffers one record.
	Write(record Record)
	// Flush stores all buffered records.
	Flush() error
	// Close flushes and releases the destination.
	Close() error
}

// NewRunID returns a fresh, sortable identifier for a simulation run.
func NewRunID() string {
	return xid.New().String()
}

func defaultName() string {
	return "dmcache_trace_" + NewRunID()
}

// MemoryWriter keeps records in memory.
type MemoryWriter struct {
	Records []Record
}

// NewMemoryWriter creates an empty MemoryWriter.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{}
}

func (w *MemoryWriter) Init() error { return nil }

func (w *MemoryWriter) Write(record Record) {
	w.Records = append(w.Records, record)
}

func (w *MemoryWriter) Flush() error { return nil }

func (w *MemoryWriter) Close() error { return nil }

// MultiWriter fans records out to several writers.
type MultiWriter []Writer

func (m MultiWriter) Init() error {
	for _, w := range m {
		if err := w.Init(); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiWriter) Write(record Record) {
	for _, w := range m {
		w.Write(record)
	}
}

func (m MultiWriter) Flush() error {
	for _, w := range m {
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiWriter) Close() error {
	var first error
	for _, w := range m {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
