// Package tail turns filesystem change notifications for a growing file
// into batches of newly appended lines.
//
// Each Tailer owns one open file handle and a read cursor. The cursor only
// moves forward, except when the file shrinks below it: that is reported as
// a truncation and the cursor jumps to the new length. Truncated content is
// never re-read.
package tail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
)

// ErrSinkClosed is returned by a Sink whose consumer has gone away
var ErrSinkClosed = errors.New("sink closed")

// Batch is the set of lines produced by one reaction of one tailer
type Batch struct {
	FileID string
	Lines  []string
}

// Sink receives batches from tailers. Implementations must be safe for
// concurrent use by several tailers.
type Sink interface {
	Send(Batch) error
}

// TruncationMessage is the diagnostic line emitted when a file shrinks
func TruncationMessage(size int64) string {
	return fmt.Sprintf("mtail: file truncated to position %d", size)
}

// Option configures a Tailer
type Option func(*Tailer)

// WithLogger sets the diagnostic logger
func WithLogger(log *zap.Logger) Option {
	return func(t *Tailer) {
		if log != nil {
			t.log = log
		}
	}
}

// WithPolicy overrides the content-change policy
func WithPolicy(p Policy) Option {
	return func(t *Tailer) {
		if p != nil {
			t.accept = p
		}
	}
}

// Tailer follows one file
type Tailer struct {
	path     string
	file     *os.File
	cursor   int64
	notifier Notifier
	sink     Sink
	accept   Policy
	log      *zap.Logger

	// stopped is set when the initial batch could not be delivered
	stopped   error
	closeOnce sync.Once
}

// Start opens path, emits its current content as the first batch and
// returns a Tailer ready to Run. The cursor is advanced to the current
// length even when the initial batch cannot be delivered.
func Start(path string, notifier Notifier, sink Sink, opts ...Option) (*Tailer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	t := &Tailer{
		path:     path,
		file:     file,
		notifier: notifier,
		sink:     sink,
		accept:   ContentChanges,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.With(zap.String("file", path))

	size, err := t.size()
	if err != nil {
		file.Close()
		return nil, err
	}

	lines, n, err := t.readRange(0, size)
	if err != nil {
		file.Close()
		return nil, err
	}
	t.cursor = n
	t.log.Debug("initial read", zap.Int64("bytes", n), zap.Int("lines", len(lines)))

	if err := t.send(lines); err != nil {
		t.stopped = err
	}
	return t, nil
}

// Path returns the watched path, which is also the batch file id
func (t *Tailer) Path() string {
	return t.path
}

// Cursor returns the byte offset read so far
func (t *Tailer) Cursor() int64 {
	return t.cursor
}

// Run waits for change notifications until ctx is cancelled, the notifier
// shuts down, or a fatal error occurs. The file handle and notifier are
// closed on return.
func (t *Tailer) Run(ctx context.Context) error {
	defer t.Close()

	if t.stopped != nil {
		return t.stopped
	}

	changes := t.notifier.Changes()
	errs := t.notifier.Errors()
	for {
		select {
		case <-ctx.Done():
			t.log.Debug("tailer stopped")
			return nil

		case change, ok := <-changes:
			if !ok {
				t.log.Debug("notifier closed")
				return nil
			}
			if !t.accept(change) {
				t.log.Debug("skip change", zap.Stringer("kind", change.Kind))
				continue
			}
			if err := t.handle(); err != nil {
				t.log.Error("tailer failed", zap.Error(err))
				return err
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			t.log.Error("notifier error", zap.Error(err))
		}
	}
}

// handle reacts to one accepted change
func (t *Tailer) handle() error {
	size, err := t.size()
	if err != nil {
		return err
	}

	switch {
	case size == t.cursor:
		t.log.Debug("ignoring change, length equals cursor", zap.Int64("cursor", t.cursor))
		return nil

	case size < t.cursor:
		t.log.Info("file truncated", zap.Int64("cursor", t.cursor), zap.Int64("size", size))
		t.cursor = size
		return t.send([]string{TruncationMessage(size)})

	default:
		lines, n, err := t.readRange(t.cursor, size)
		if err != nil {
			return err
		}
		t.cursor += n
		return t.send(lines)
	}
}

func (t *Tailer) size() (int64, error) {
	info, err := t.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", t.path, err)
	}
	return info.Size(), nil
}

// readRange reads bytes from start to end and splits them into lines.
// It returns the number of bytes consumed, which is short of end-start
// only if the file shrank while reading.
func (t *Tailer) readRange(start, end int64) ([]string, int64, error) {
	if start >= end {
		return nil, 0, nil
	}
	t.log.Debug("reading", zap.Int64("from", start), zap.Int64("to", end))

	buf := make([]byte, end-start)
	n, err := t.file.ReadAt(buf, start)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, 0, fmt.Errorf("read %s at %d: %w", t.path, start, err)
	}
	return SplitLines(buf[:n]), int64(n), nil
}

func (t *Tailer) send(lines []string) error {
	err := t.sink.Send(Batch{FileID: t.path, Lines: lines})
	if err != nil {
		t.log.Error("failed to send batch", zap.Int("lines", len(lines)), zap.Error(err))
		return fmt.Errorf("send %s: %w", t.path, err)
	}
	return nil
}

// Close releases the notifier and file handle. Run calls it on return;
// calling it again is a no-op.
func (t *Tailer) Close() {
	t.closeOnce.Do(func() {
		if err := t.notifier.Close(); err != nil {
			t.log.Warn("close notifier", zap.Error(err))
		}
		if err := t.file.Close(); err != nil {
			t.log.Warn("close file", zap.Error(err))
		}
	})
}
