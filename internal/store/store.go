// Package store persists aggregated log lines in an append-only record
// store and reads them back in insertion order. One store is created per
// mtail run; nothing is deleted while it is open.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrClosed is returned by operations on a closed store
var ErrClosed = errors.New("store: closed")

// Record is one stored line. IDs increase strictly in insertion order.
type Record struct {
	ID      int64
	FileID  string
	Message string
}

// Writer appends lines to durable storage.
type Writer interface {
	Append(fileID, message string) error
}

// Reader returns every stored record ordered by ascending ID.
type Reader interface {
	QueryAll() ([]Record, error)
}

// Store combines Writer and Reader into one run-scoped handle.
type Store interface {
	Writer
	Reader
	Close() error
}

// Backend names accepted by Open
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Options selects and sizes a backend
type Options struct {
	Backend string
	Dir     string // sqlite only
	// Capacity bounds the memory backend; zero or less keeps everything
	Capacity int
}

// Open creates the store for a run that started at now
func Open(opts Options, now time.Time) (Store, error) {
	switch opts.Backend {
	case "", BackendSQLite:
		path, err := SessionPath(opts.Dir, now)
		if err != nil {
			return nil, err
		}
		return OpenSQLite(path)
	case BackendMemory:
		return NewMemory(opts.Capacity), nil
	}
	return nil, fmt.Errorf("store: unknown backend %q", opts.Backend)
}

// SessionPath returns "<dir>/<unix-millis>.db3", creating dir if needed
func SessionPath(dir string, now time.Time) (string, error) {
	if dir == "" {
		dir = "db"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("store: mkdir %q: %w", dir, err)
	}
	return filepath.Join(dir, fmt.Sprintf("%d.db3", now.UnixMilli())), nil
}
