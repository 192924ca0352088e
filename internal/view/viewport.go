package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/TimelordUK/mtail/internal/render"
	"github.com/TimelordUK/mtail/internal/source"
)

// Viewport turns a paginated frame into styled text. It keeps no scroll
// state of its own; that lives in ScrollState.
type Viewport struct {
	renderer    render.Renderer
	fillerStyle lipgloss.Style

	width  int
	height int
}

// NewViewport creates a new viewport
func NewViewport(width, height int) *Viewport {
	return &Viewport{
		width:       width,
		height:      height,
		renderer:    render.NewPlainRenderer(),
		fillerStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// SetRenderer sets the row renderer
func (v *Viewport) SetRenderer(r render.Renderer) {
	if r != nil {
		v.renderer = r
	}
}

// SetFillerColor sets the color of the "~" rows below the content
func (v *Viewport) SetFillerColor(c string) {
	v.fillerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(c))
}

// SetSize updates viewport dimensions
func (v *Viewport) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Geometry returns the size handed to Paginate
func (v *Viewport) Geometry() Geometry {
	return Geometry{Width: v.width, Height: v.height}.clamped()
}

// Render draws frame. lines must be the snapshot the frame was paginated
// from.
func (v *Viewport) Render(lines *source.Snapshot, frame Frame) string {
	height := frame.Geometry.Height
	if height < 1 {
		height = v.Geometry().Height
	}

	var b strings.Builder
	for i, row := range frame.Rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(v.renderer.Render(lines.Line(row.Line), row.Text))
	}

	for i := len(frame.Rows); i < height; i++ {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(v.fillerStyle.Render("~"))
	}
	return b.String()
}

// PercentScrolled returns how far through the content the frame is
func PercentScrolled(frame Frame) float64 {
	maxTop := frame.TotalRows - frame.Geometry.Height
	if frame.Position.AtBottom || maxTop <= 0 {
		return 100
	}
	return float64(frame.Position.Row) / float64(maxTop) * 100
}
