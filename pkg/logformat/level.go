package logformat

import "strings"

// Level represents a log severity level
type Level int

const (
	LevelUnknown Level = iota
	LevelTrace
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"unknown", "trace", "debug", "info", "warn", "error", "fatal"}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "unknown"
	}
	return levelNames[l]
}

// Patterns lists the substrings that mark each level
type Patterns struct {
	Trace []string
	Debug []string
	Info  []string
	Warn  []string
	Error []string
	Fatal []string
}

// LevelDetector detects log levels from line content
type LevelDetector struct {
	// most severe first so "ERROR in INFO handler" reads as an error
	ordered []levelPatterns
}

type levelPatterns struct {
	level    Level
	patterns []string
}

// NewLevelDetector creates a detector from the given patterns
func NewLevelDetector(p Patterns) *LevelDetector {
	return &LevelDetector{
		ordered: []levelPatterns{
			{LevelFatal, p.Fatal},
			{LevelError, p.Error},
			{LevelWarn, p.Warn},
			{LevelInfo, p.Info},
			{LevelDebug, p.Debug},
			{LevelTrace, p.Trace},
		},
	}
}

// Detect returns the log level for a line
func (d *LevelDetector) Detect(line string) Level {
	for _, lp := range d.ordered {
		for _, pattern := range lp.patterns {
			if pattern != "" && strings.Contains(line, pattern) {
				return lp.level
			}
		}
	}
	return LevelUnknown
}
