package consolidate

import (
	"sync"

	"github.com/TimelordUK/mtail/internal/tail"
)

// Queue is an unbounded multi-producer, single-consumer hand-off between
// tailers and the render loop. Send never blocks and Drain never waits.
// Batches from one producer come out in the order that producer sent them.
type Queue struct {
	mu      sync.Mutex
	pending []tail.Batch
	closed  bool
}

// NewQueue creates an empty open queue
func NewQueue() *Queue {
	return &Queue{}
}

// Send buffers a batch. It returns tail.ErrSinkClosed once the queue has
// been closed.
func (q *Queue) Send(b tail.Batch) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return tail.ErrSinkClosed
	}
	q.pending = append(q.pending, b)
	return nil
}

// Drain removes and returns everything buffered, in arrival order
func (q *Queue) Drain() []tail.Batch {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.pending
	q.pending = nil
	return out
}

// Len returns the number of buffered batches
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close rejects further sends. Batches already buffered can still be drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
