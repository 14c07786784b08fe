package trace

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tebeka/atexit"
)

var csvHeader = []string{
	"RunID", "Cycle", "Time", "Ena", "RstN", "UIIn", "UOOut",
	"Op", "Address", "Hit", "Data",
}

// CSVWriter writes records to a CSV file.
type CSVWriter struct {
	path string
	file *os.File
	csv  *csv.Writer

	records    []Record
	bufferSize int

	// err is the first error of a flush triggered by Write.
	err error
}

// NewCSVWriter creates a CSVWriter. An empty path picks a unique name in
// the working directory. Init adds a ".csv" extension if path has none.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Path returns the file name, available after Init.
func (w *CSVWriter) Path() string {
	return w.path
}

// Init creates the CSV file and writes the header. An existing file is
// never overwritten.
func (w *CSVWriter) Init() error {
	if w.path == "" {
		w.path = defaultName()
	}
	if filepath.Ext(w.path) != ".csv" {
		w.path += ".csv"
	}

	file, err := os.OpenFile(w.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}
	w.file = file
	w.csv = csv.NewWriter(file)

	if err := w.csv.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write trace header: %w", err)
	}

	atexit.Register(func() { _ = w.Close() })

	return nil
}

// Write buffers a record. An error from the automatic flush is reported by
// the next Flush or Close.
func (w *CSVWriter) Write(record Record) {
	w.records = append(w.records, record)
	if len(w.records) >= w.bufferSize {
		if err := w.flush(); err != nil && w.err == nil {
			w.err = err
		}
	}
}

// Flush writes the buffered records to the file. Records that reached the
// file are never written again.
func (w *CSVWriter) Flush() error {
	err := w.flush()
	if w.err != nil {
		err = w.err
		w.err = nil
	}
	return err
}

func (w *CSVWriter) flush() error {
	if w.csv == nil {
		return nil
	}

	for i, r := range w.records {
		err := w.csv.Write([]string{
			r.RunID,
			strconv.FormatUint(r.Cycle, 10),
			strconv.FormatFloat(r.Time, 'g', 10, 64),
			strconv.FormatBool(r.Ena),
			strconv.FormatBool(r.RstN),
			strconv.FormatUint(uint64(r.UIIn), 10),
			strconv.FormatUint(uint64(r.UOOut), 10),
			r.Op,
			strconv.FormatUint(r.Address, 10),
			strconv.FormatBool(r.Hit),
			strconv.FormatUint(r.Data, 10),
		})
		if err != nil {
			w.records = w.records[i:]
			return fmt.Errorf("failed to write trace record: %w", err)
		}
	}
	w.records = nil

	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush trace file: %w", err)
	}
	return nil
}

// Close flushes and closes the file. Closing twice is a no-op.
func (w *CSVWriter) Close() error {
	if w.file == nil {
		return nil
	}

	flushErr := w.Flush()
	closeErr := w.file.Close()
	w.file = nil
	w.csv = nil

	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
