package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/TimelordUK/mtail/internal/config"
	"github.com/TimelordUK/mtail/internal/source"
	"github.com/TimelordUK/mtail/pkg/logformat"
)

// Renderer applies styling to one wrapped row of a line. segment is the
// part of line.Text that fits on the row.
type Renderer interface {
	Render(line source.Line, segment string) string
}

// New picks the renderer the display config asks for
func New(cfg *config.Config) Renderer {
	switch {
	case cfg.Display.SyntaxHighlight:
		return NewSyntaxRenderer(cfg.Display.SyntaxTheme)
	case cfg.Display.ColorizeLevels:
		return NewLogLevelRenderer(cfg)
	}
	return NewPlainRenderer()
}

// LogLevelRenderer colors lines based on log level
type LogLevelRenderer struct {
	styles map[logformat.Level]lipgloss.Style
}

// NewLogLevelRenderer creates a renderer with config
func NewLogLevelRenderer(cfg *config.Config) *LogLevelRenderer {
	levels := cfg.Theme.Levels
	color := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}

	return &LogLevelRenderer{
		styles: map[logformat.Level]lipgloss.Style{
			logformat.LevelUnknown: lipgloss.NewStyle(),
			logformat.LevelTrace:   color(levels.Trace),
			logformat.LevelDebug:   color(levels.Debug),
			logformat.LevelInfo:    color(levels.Info),
			logformat.LevelWarn:    color(levels.Warn),
			logformat.LevelError:   color(levels.Error),
			logformat.LevelFatal:   color(levels.Fatal),
		},
	}
}

// Render applies the style of the line's level to the segment
func (r *LogLevelRenderer) Render(line source.Line, segment string) string {
	style, ok := r.styles[line.Level]
	if !ok {
		return segment
	}
	return style.Render(segment)
}

// PlainRenderer renders without styling
type PlainRenderer struct{}

// NewPlainRenderer creates a plain renderer
func NewPlainRenderer() *PlainRenderer {
	return &PlainRenderer{}
}

// Render returns the segment as-is
func (r *PlainRenderer) Render(_ source.Line, segment string) string {
	return segment
}
