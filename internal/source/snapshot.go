// Package source turns stored log records into the logical lines the
// pager displays. A Snapshot is built once per tick and is immutable, so
// the pagination engine and the viewport can both borrow it.
package source

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/TimelordUK/mtail/internal/store"
	"github.com/TimelordUK/mtail/pkg/logformat"
)

// PrefixMode controls how the originating file is shown before each line
type PrefixMode int

const (
	PrefixPath PrefixMode = iota // "/var/log/app.log: message"
	PrefixBase                   // "app.log: message"
	PrefixNone                   // "message"
)

// ParsePrefixMode maps a config value to a PrefixMode
func ParsePrefixMode(s string) (PrefixMode, error) {
	switch s {
	case "", "path":
		return PrefixPath, nil
	case "base":
		return PrefixBase, nil
	case "none":
		return PrefixNone, nil
	}
	return PrefixPath, fmt.Errorf("unknown source prefix %q (want path, base or none)", s)
}

// Line is one logical line of the aggregated log
type Line struct {
	Record store.Record
	Text   string // sanitized display text including the prefix
	Level  logformat.Level
}

// Options controls how records become display text
type Options struct {
	Prefix     PrefixMode
	TabWidth   int
	Detector   *logformat.LevelDetector   // nil disables level tagging
	Timestamps *logformat.TimestampParser // nil disables timestamp lookup
}

// Snapshot is the immutable set of logical lines for one frame
type Snapshot struct {
	lines      []Line
	timestamps *logformat.TimestampParser
}

// Len returns the number of logical lines
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.lines)
}

// Text returns the display text of line i
func (s *Snapshot) Text(i int) string {
	return s.lines[i].Text
}

// Line returns line i
func (s *Snapshot) Line(i int) Line {
	return s.lines[i]
}

// Timestamp returns the first timestamp found in the message of line i
func (s *Snapshot) Timestamp(i int) (time.Time, bool) {
	if s.timestamps == nil || i < 0 || i >= len(s.lines) {
		return time.Time{}, false
	}
	return s.timestamps.Parse(s.lines[i].Record.Message)
}

// Builder produces snapshots and reuses the lines of the previous one when
// the store only grew
type Builder struct {
	opts Options
	last *Snapshot
}

// NewBuilder creates a snapshot builder
func NewBuilder(opts Options) *Builder {
	if opts.TabWidth < 1 {
		opts.TabWidth = 4
	}
	return &Builder{opts: opts}
}

// Build converts records, ordered by ID, into a snapshot
func (b *Builder) Build(records []store.Record) *Snapshot {
	reuse := b.reusable(records)

	lines := make([]Line, len(records))
	if reuse > 0 {
		copy(lines, b.last.lines[:reuse])
	}
	for i := reuse; i < len(records); i++ {
		lines[i] = b.line(records[i])
	}

	b.last = &Snapshot{lines: lines, timestamps: b.opts.Timestamps}
	return b.last
}

// reusable returns how many leading lines of the previous snapshot still
// match records
func (b *Builder) reusable(records []store.Record) int {
	prev := b.last.Len()
	if prev == 0 || len(records) < prev {
		return 0
	}
	first, last := b.last.lines[0].Record, b.last.lines[prev-1].Record
	if records[0] != first || records[prev-1] != last {
		return 0
	}
	return prev
}

func (b *Builder) line(r store.Record) Line {
	msg := Sanitize(r.Message, b.opts.TabWidth)

	l := Line{Record: r, Text: b.prefix(r.FileID) + msg}
	if b.opts.Detector != nil {
		l.Level = b.opts.Detector.Detect(msg)
	}
	return l
}

func (b *Builder) prefix(fileID string) string {
	switch b.opts.Prefix {
	case PrefixBase:
		return filepath.Base(fileID) + ": "
	case PrefixNone:
		return ""
	}
	return fileID + ": "
}

// Sanitize strips terminal escape sequences, expands tabs and drops other
// control characters so every rune occupies one column
func Sanitize(s string, tabWidth int) string {
	if tabWidth < 1 {
		tabWidth = 1
	}

	var sb strings.Builder
	col := 0
	for i, segment := range strings.Split(s, "\t") {
		if i > 0 {
			n := tabWidth - col%tabWidth
			sb.WriteString(strings.Repeat(" ", n))
			col += n
		}
		for _, r := range ansi.Strip(segment) {
			if r < 0x20 || r == 0x7f {
				continue
			}
			sb.WriteRune(r)
			col++
		}
	}
	return sb.String()
}
