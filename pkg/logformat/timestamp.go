package logformat

import (
	"regexp"
	"strconv"
	"time"
)

// TimestampParser finds the first timestamp in a log line
type TimestampParser struct {
	patterns []timestampPattern
	now      func() time.Time
}

type timestampPattern struct {
	regex   *regexp.Regexp
	layouts []string
	fill    func(t, now time.Time) time.Time
}

const (
	layoutUnix   = "unix"
	layoutUnixMs = "unix_ms"
)

// NewTimestampParser creates a parser with common timestamp formats
func NewTimestampParser() *TimestampParser {
	return newTimestampParser(time.Now)
}

func newTimestampParser(now func() time.Time) *TimestampParser {
	return &TimestampParser{
		now: now,
		patterns: []timestampPattern{
			// 2024-01-15T10:30:45.123Z
			{
				regex:   regexp.MustCompile(`(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?)`),
				layouts: []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"},
			},
			// 2024-01-15 10:30:45.123, also inside brackets
			{
				regex:   regexp.MustCompile(`(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(?:\.\d+)?)`),
				layouts: []string{"2006-01-02 15:04:05.999999999", "2006-01-02 15:04:05"},
			},
			// 15/Jan/2024:10:30:45 +0000
			{
				regex:   regexp.MustCompile(`(\d{2}/[A-Z][a-z]{2}/\d{4}:\d{2}:\d{2}:\d{2} [+-]\d{4})`),
				layouts: []string{"02/Jan/2006:15:04:05 -0700"},
			},
			// Jan 15 10:30:45 (syslog, no year)
			{
				regex:   regexp.MustCompile(`([A-Z][a-z]{2} +\d{1,2} \d{2}:\d{2}:\d{2})`),
				layouts: []string{"Jan _2 15:04:05", "Jan 2 15:04:05"},
				fill: func(t, now time.Time) time.Time {
					return time.Date(now.Year(), t.Month(), t.Day(),
						t.Hour(), t.Minute(), t.Second(), 0, time.Local)
				},
			},
			// 1705315845123
			{
				regex:   regexp.MustCompile(`^(\d{13})(?:\D|$)`),
				layouts: []string{layoutUnixMs},
			},
			// 1705315845
			{
				regex:   regexp.MustCompile(`^(\d{10})(?:\D|$)`),
				layouts: []string{layoutUnix},
			},
			// 10:30:45.123 (time of day only)
			{
				regex:   regexp.MustCompile(`^(\d{2}:\d{2}:\d{2}(?:\.\d+)?)`),
				layouts: []string{"15:04:05.999999999", "15:04:05"},
				fill: func(t, now time.Time) time.Time {
					return time.Date(now.Year(), now.Month(), now.Day(),
						t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local)
				},
			},
		},
	}
}

// Parse returns the first timestamp found in line
func (p *TimestampParser) Parse(line string) (time.Time, bool) {
	for _, pattern := range p.patterns {
		m := pattern.regex.FindStringSubmatch(line)
		if len(m) < 2 {
			continue
		}
		if t, ok := p.parse(pattern, m[1]); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func (p *TimestampParser) parse(pattern timestampPattern, s string) (time.Time, bool) {
	for _, layout := range pattern.layouts {
		switch layout {
		case layoutUnix, layoutUnixMs:
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				continue
			}
			if layout == layoutUnixMs {
				return time.UnixMilli(n), true
			}
			return time.Unix(n, 0), true
		}

		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if pattern.fill != nil {
			t = pattern.fill(t, p.now())
		}
		return t, true
	}
	return time.Time{}, false
}

// FormatTime formats a timestamp for the status bar
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("15:04:05")
}
