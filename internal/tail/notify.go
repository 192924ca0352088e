package tail

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeKind classifies a filesystem notification for a watched file
type ChangeKind int

const (
	ChangeWrite ChangeKind = iota
	ChangeCreate
	ChangeMetadata
	ChangeRename
	ChangeRemove
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeWrite:
		return "write"
	case ChangeCreate:
		return "create"
	case ChangeMetadata:
		return "metadata"
	case ChangeRename:
		return "rename"
	case ChangeRemove:
		return "remove"
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

// Change is one notification delivered to a tailer
type Change struct {
	Kind ChangeKind
}

// Notifier delivers change notifications for a single file.
// Changes and Errors are closed (or never fire again) after Close.
type Notifier interface {
	Changes() <-chan Change
	Errors() <-chan error
	Close() error
}

// Policy decides whether a change notification should trigger a read
type Policy func(Change) bool

// ContentChanges accepts only notifications reporting a data write.
// Metadata, rename, remove and create notifications are ignored.
func ContentChanges(c Change) bool {
	return c.Kind == ChangeWrite
}

// AnyChange accepts every notification. Spurious events are harmless
// because an unchanged length is a no-op.
func AnyChange(Change) bool {
	return true
}

// PolicyByName maps a config value to a Policy
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "content":
		return ContentChanges, nil
	case "any":
		return AnyChange, nil
	}
	return nil, fmt.Errorf("unknown watch policy %q", name)
}

// FSNotifier adapts an fsnotify watcher on one path
type FSNotifier struct {
	watcher *fsnotify.Watcher
	changes chan Change
	errors  chan error
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewFSNotifier starts watching path
func NewFSNotifier(path string) (*FSNotifier, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	n := &FSNotifier{
		watcher: w,
		changes: make(chan Change),
		errors:  make(chan error),
		done:    make(chan struct{}),
	}
	n.wg.Add(1)
	go n.loop()
	return n, nil
}

func (n *FSNotifier) loop() {
	defer n.wg.Done()
	defer close(n.changes)
	defer close(n.errors)

	for {
		select {
		case event, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			select {
			case n.changes <- Change{Kind: kindOf(event.Op)}:
			case <-n.done:
				return
			}

		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			select {
			case n.errors <- err:
			case <-n.done:
				return
			}

		case <-n.done:
			return
		}
	}
}

// kindOf picks the most content-relevant kind when fsnotify coalesces ops
func kindOf(op fsnotify.Op) ChangeKind {
	switch {
	case op.Has(fsnotify.Write):
		return ChangeWrite
	case op.Has(fsnotify.Create):
		return ChangeCreate
	case op.Has(fsnotify.Remove):
		return ChangeRemove
	case op.Has(fsnotify.Rename):
		return ChangeRename
	default:
		return ChangeMetadata
	}
}

func (n *FSNotifier) Changes() <-chan Change { return n.changes }
func (n *FSNotifier) Errors() <-chan error   { return n.errors }

// Close stops the watcher and waits for the forwarding goroutine
func (n *FSNotifier) Close() error {
	var err error
	n.once.Do(func() {
		close(n.done)
		err = n.watcher.Close()
		n.wg.Wait()
	})
	return err
}

// PollNotifier reports a write on every tick. It stands in for fsnotify on
// filesystems that do not deliver inotify events (network mounts, some
// container volumes).
type PollNotifier struct {
	changes chan Change
	errors  chan error
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewPollNotifier starts a ticker with the given interval
func NewPollNotifier(interval time.Duration) *PollNotifier {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	n := &PollNotifier{
		changes: make(chan Change),
		errors:  make(chan error),
		done:    make(chan struct{}),
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer close(n.changes)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-n.done:
				return
			case <-ticker.C:
				select {
				case n.changes <- Change{Kind: ChangeWrite}:
				case <-n.done:
					return
				}
			}
		}
	}()
	return n
}

func (n *PollNotifier) Changes() <-chan Change { return n.changes }
func (n *PollNotifier) Errors() <-chan error   { return n.errors }

// Close stops the ticker goroutine
func (n *PollNotifier) Close() error {
	n.once.Do(func() {
		close(n.done)
		n.wg.Wait()
	})
	return nil
}
