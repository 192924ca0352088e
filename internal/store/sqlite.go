package store

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const (
	createTableSQL = `CREATE TABLE log (
	id INTEGER PRIMARY KEY,
	file_id TEXT NOT NULL,
	message TEXT NOT NULL
)`
	insertSQL = `INSERT INTO log (file_id, message) VALUES (?, ?)`
	selectSQL = `SELECT id, file_id, message FROM log ORDER BY id`
)

// SQLite is a Store backed by a single-table SQLite database file
type SQLite struct {
	db     *sql.DB
	insert *sql.Stmt
	query  *sql.Stmt
	path   string

	mu     sync.Mutex
	closed bool
}

// OpenSQLite creates a new database at path with the log table.
// The file must not already contain a log table.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	// A single connection keeps ":memory:" databases coherent and matches
	// the single-writer access pattern.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	insert, err := db.Prepare(insertSQL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: prepare insert: %w", err)
	}
	query, err := db.Prepare(selectSQL)
	if err != nil {
		insert.Close()
		db.Close()
		return nil, fmt.Errorf("store: prepare query: %w", err)
	}

	return &SQLite{
		db:     db,
		insert: insert,
		query:  query,
		path:   path,
	}, nil
}

// Path returns the database file path
func (s *SQLite) Path() string {
	return s.path
}

// Append inserts one record
func (s *SQLite) Append(fileID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if _, err := s.insert.Exec(fileID, message); err != nil {
		return fmt.Errorf("store: insert: %w", err)
	}
	return nil
}

// QueryAll scans the whole table in id order
func (s *SQLite) QueryAll() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.query.Query()
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.FileID, &r.Message); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: rows: %w", err)
	}
	return records, nil
}

// Close releases the statements and the database handle
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	s.insert.Close()
	s.query.Close()
	return s.db.Close()
}
