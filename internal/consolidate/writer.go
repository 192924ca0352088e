package consolidate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TimelordUK/mtail/internal/store"
	"github.com/TimelordUK/mtail/internal/tail"
)

// FailedSource is a watched file that could not be opened or whose tailer
// stopped with an error
type FailedSource struct {
	Path string
	Err  error
}

// FlushStats summarizes one Flush
type FlushStats struct {
	Batches  int
	Appended int
	Dropped  int // lines the store refused
}

// NotifierFactory creates the change notifier for one path
type NotifierFactory func(path string) (tail.Notifier, error)

// Option configures a Writer
type Option func(*Writer)

// WithLogger sets the diagnostic logger for the writer and its tailers
func WithLogger(log *zap.Logger) Option {
	return func(w *Writer) {
		if log != nil {
			w.log = log
		}
	}
}

// WithPolicy sets the content-change policy applied by every tailer
func WithPolicy(p tail.Policy) Option {
	return func(w *Writer) {
		w.policy = p
	}
}

// WithPollInterval switches from filesystem notifications to polling.
// Zero keeps fsnotify.
func WithPollInterval(d time.Duration) Option {
	return func(w *Writer) {
		if d > 0 {
			w.notify = func(string) (tail.Notifier, error) {
				return tail.NewPollNotifier(d), nil
			}
		}
	}
}

// WithNotifierFactory replaces how notifiers are created
func WithNotifierFactory(f NotifierFactory) Option {
	return func(w *Writer) {
		if f != nil {
			w.notify = f
		}
	}
}

// Writer merges several tailed files into one record store. Tailers push
// batches into the queue from their own goroutines; Flush moves them into
// the store from the caller's goroutine.
type Writer struct {
	queue   *Queue
	store   store.Writer
	tailers []*tail.Tailer
	log     *zap.Logger
	policy  tail.Policy
	notify  NotifierFactory

	mu     sync.Mutex
	failed []FailedSource

	group  errgroup.Group
	cancel context.CancelFunc
	closed bool
}

// NewWriter starts a tailer for every path. Each tailer has already queued
// its file's current content when NewWriter returns. Paths that cannot be
// opened are logged and reported by Failed; the rest keep working.
func NewWriter(paths []string, st store.Writer, opts ...Option) (*Writer, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no source files provided")
	}
	if st == nil {
		return nil, fmt.Errorf("no record store provided")
	}

	w := &Writer{
		queue:  NewQueue(),
		store:  st,
		log:    zap.NewNop(),
		notify: func(path string) (tail.Notifier, error) { return tail.NewFSNotifier(path) },
		cancel: func() {},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.Named("consolidate")

	for _, path := range paths {
		t, err := w.open(path)
		if err != nil {
			w.log.Error("cannot watch file", zap.String("file", path), zap.Error(err))
			w.recordFailure(path, err)
			continue
		}
		w.tailers = append(w.tailers, t)
	}

	w.log.Info("writer started",
		zap.Int("files", len(paths)),
		zap.Int("watching", len(w.tailers)))
	return w, nil
}

// open subscribes before the initial read so writes landing in between
// still produce a notification
func (w *Writer) open(path string) (*tail.Tailer, error) {
	n, err := w.notify(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	topts := []tail.Option{tail.WithLogger(w.log.Named("tail"))}
	if w.policy != nil {
		topts = append(topts, tail.WithPolicy(w.policy))
	}

	t, err := tail.Start(path, n, w.queue, topts...)
	if err != nil {
		n.Close()
		return nil, err
	}
	return t, nil
}

// Run starts one goroutine per tailer and returns immediately. The tailers
// stop when ctx is cancelled or Close is called.
func (w *Writer) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	for _, t := range w.tailers {
		w.group.Go(func() error {
			if err := t.Run(ctx); err != nil && !errors.Is(err, tail.ErrSinkClosed) {
				w.recordFailure(t.Path(), err)
			}
			return nil
		})
	}
}

// Flush drains the queue and appends every line to the store in batch
// order. It never blocks on tailers.
func (w *Writer) Flush() FlushStats {
	var stats FlushStats
	for _, b := range w.queue.Drain() {
		stats.Batches++
		for _, line := range b.Lines {
			if err := w.store.Append(b.FileID, line); err != nil {
				stats.Dropped++
				w.log.Error("append failed",
					zap.String("file", b.FileID),
					zap.String("line", line),
					zap.Error(err))
				continue
			}
			stats.Appended++
		}
	}
	if stats.Batches > 0 {
		w.log.Debug("flushed",
			zap.Int("batches", stats.Batches),
			zap.Int("appended", stats.Appended),
			zap.Int("dropped", stats.Dropped))
	}
	return stats
}

// Pending returns the number of batches waiting for Flush
func (w *Writer) Pending() int {
	return w.queue.Len()
}

// SourceCount returns the number of files that are being tailed
func (w *Writer) SourceCount() int {
	return len(w.tailers)
}

// Failed returns the files that could not be watched or stopped early
func (w *Writer) Failed() []FailedSource {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]FailedSource, len(w.failed))
	copy(out, w.failed)
	return out
}

func (w *Writer) recordFailure(path string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failed = append(w.failed, FailedSource{Path: path, Err: err})
}

// Close stops every tailer, waits for them and closes the queue. Lines
// still buffered are discarded.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	w.group.Wait()

	for _, t := range w.tailers {
		t.Close()
	}
	w.queue.Close()
	w.log.Info("writer closed")
	return nil
}
