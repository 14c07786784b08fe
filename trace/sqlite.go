package trace

import (
	"database/sql"
	"fmt"
	"path/filepath"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/tebeka/atexit"
)

// SQLiteWriter writes records into a "cycles" table of a SQLite database.
type SQLiteWriter struct {
	*sql.DB
	statement *sql.Stmt

	path      string
	records   []Record
	batchSize int

	// err is the first error of a flush triggered by Write.
	err error
}

// NewSQLiteWriter creates a SQLiteWriter. An empty path picks a unique name
// in the working directory.
func NewSQLiteWriter(path string) *SQLiteWriter {
	return &SQLiteWriter{
		path:      path,
		batchSize: 10000,
	}
}

// Path returns the database file name, available after Init.
func (w *SQLiteWriter) Path() string {
	return w.path
}

// Init opens the database and creates the table.
func (w *SQLiteWriter) Init() error {
	if w.path == "" {
		w.path = defaultName()
	}
	if filepath.Ext(w.path) != ".sqlite3" {
		w.path += ".sqlite3"
	}

	db, err := sql.Open("sqlite3", w.path)
	if err != nil {
		return fmt.Errorf("failed to open trace database: %w", err)
	}
	w.DB = db

	_, err = w.Exec(`
		CREATE TABLE IF NOT EXISTS cycles (
			run_id  TEXT,
			cycle   INTEGER,
			time    REAL,
			ena     INTEGER,
			rst_n   INTEGER,
			ui_in   INTEGER,
			uo_out  INTEGER,
			op      TEXT,
			address INTEGER,
			hit     INTEGER,
			data    INTEGER
		)`)
	if err != nil {
		return fmt.Errorf("failed to create cycles table: %w", err)
	}

	w.statement, err = w.Prepare(`
		INSERT INTO cycles VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	atexit.Register(func() { _ = w.Close() })

	return nil
}

// Write buffers a record. An error from the automatic flush is reported by
// the next Flush or Close.
func (w *SQLiteWriter) Write(record Record) {
	w.records = append(w.records, record)
	if len(w.records) >= w.batchSize {
		if err := w.flush(); err != nil && w.err == nil {
			w.err = err
		}
	}
}

// Flush inserts the buffered records in one transaction. A failed
// transaction is rolled back and its records stay buffered.
func (w *SQLiteWriter) Flush() error {
	err := w.flush()
	if w.err != nil {
		err = w.err
		w.err = nil
	}
	return err
}

func (w *SQLiteWriter) flush() error {
	if len(w.records) == 0 || w.DB == nil {
		return nil
	}

	tx, err := w.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt := tx.Stmt(w.statement)
	for _, r := range w.records {
		_, err := stmt.Exec(
			r.RunID,
			r.Cycle,
			r.Time,
			r.Ena,
			r.RstN,
			r.UIIn,
			r.UOOut,
			r.Op,
			r.Address,
			r.Hit,
			r.Data,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert cycle %d: %w", r.Cycle, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trace records: %w", err)
	}

	w.records = nil
	return nil
}

// Close flushes and closes the database. Closing twice is a no-op.
func (w *SQLiteWriter) Close() error {
	if w.DB == nil {
		return nil
	}

	flushErr := w.Flush()
	if w.statement != nil {
		_ = w.statement.Close()
	}
	closeErr := w.DB.Close()
	w.DB = nil

	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// ReadSQLite loads every record of a trace database, ordered by run and
// cycle.
func ReadSQLite(path string) ([]Record, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT run_id, cycle, time, ena, rst_n, ui_in, uo_out,
			op, address, hit, data
		FROM cycles ORDER BY run_id, cycle`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		err := rows.Scan(
			&r.RunID, &r.Cycle, &r.Time, &r.Ena, &r.RstN, &r.UIIn, &r.UOOut,
			&r.Op, &r.Address, &r.Hit, &r.Data,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}
