package store

import "sync"

// Memory is an in-process Store. With a positive capacity it behaves as a
// ring buffer and only the newest records are kept; IDs keep increasing.
type Memory struct {
	mu       sync.Mutex
	records  []Record
	start    int // index of the oldest record when the ring is full
	capacity int
	nextID   int64
	closed   bool
}

// NewMemory creates a memory store; capacity <= 0 means unbounded
func NewMemory(capacity int) *Memory {
	if capacity < 0 {
		capacity = 0
	}
	return &Memory{capacity: capacity, nextID: 1}
}

// Append stores one record
func (m *Memory) Append(fileID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	r := Record{ID: m.nextID, FileID: fileID, Message: message}
	m.nextID++

	if m.capacity == 0 || len(m.records) < m.capacity {
		m.records = append(m.records, r)
		return nil
	}
	m.records[m.start] = r
	m.start = (m.start + 1) % m.capacity
	return nil
}

// QueryAll returns a copy of the retained records, oldest first
func (m *Memory) QueryAll() ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	out := make([]Record, len(m.records))
	n := copy(out, m.records[m.start:])
	copy(out[n:], m.records[:m.start])
	return out, nil
}

// Close marks the store closed
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
