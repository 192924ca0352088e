// Package view maps an unbounded sequence of wrapped log lines onto a
// fixed-size viewport.
//
// Rows are counted in runes: a line of n runes occupies ceil(n/width)
// screen rows, and an empty line still occupies one. Row heights are
// recomputed for every frame, so a resize needs no invalidation beyond the
// ScrollState.
package view

import (
	"math"
	"unicode/utf8"
)

// End is the scroll target meaning "show the last page"
const End = math.MaxInt

// Lines is the logical line sequence being paginated
type Lines interface {
	Len() int
	Text(i int) string
}

// Geometry is the size of the content area in cells
type Geometry struct {
	Width  int
	Height int
}

func (g Geometry) clamped() Geometry {
	if g.Width < 1 {
		g.Width = 1
	}
	if g.Height < 1 {
		g.Height = 1
	}
	return g
}

// ScrollState carries scroll intent from one frame to the next
type ScrollState struct {
	Position      int  // first visible row
	WasAtBottom   bool // the last frame showed the final row
	LastLineCount int
	Height        int
}

// NewScrollState returns the state of a pager that follows new output
// from the start
func NewScrollState() ScrollState {
	return ScrollState{WasAtBottom: true}
}

// Position locates the first visible row
type Position struct {
	Line     int  // logical line index
	Offset   int  // rune offset into that line
	Row      int  // absolute row index
	AtBottom bool // no further row can be scrolled into view
}

// Row is one wrapped screen row
type Row struct {
	Line int
	Text string
}

// Frame is what one viewport draw shows
type Frame struct {
	Position  Position
	Rows      []Row
	TotalRows int
	Geometry  Geometry
}

// RowsFor returns how many rows text occupies at width
func RowsFor(text string, width int) int {
	if width < 1 {
		width = 1
	}
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 1
	}
	return (n + width - 1) / width
}

// TotalRows returns the row count of every line at width
func TotalRows(lines Lines, width int) int {
	total := 0
	for i := 0; i < lines.Len(); i++ {
		total += RowsFor(lines.Text(i), width)
	}
	return total
}

// Locate finds the line and rune offset of target, the requested first
// visible row. Targets past the last full page clamp to it and report
// AtBottom.
func Locate(lines Lines, width, height, target int) Position {
	g := Geometry{Width: width, Height: height}.clamped()

	n := lines.Len()
	if n == 0 {
		return Position{AtBottom: true}
	}

	total := TotalRows(lines, g.Width)
	maxTop := total - g.Height
	if maxTop < 0 {
		maxTop = 0
	}

	pos := Position{}
	row := target
	if row < 0 {
		row = 0
	}
	if row >= maxTop {
		row = maxTop
		pos.AtBottom = true
	}
	pos.Row = row

	cum := 0
	for i := 0; i < n; i++ {
		rows := RowsFor(lines.Text(i), g.Width)
		if row < cum+rows {
			pos.Line = i
			pos.Offset = (row - cum) * g.Width
			return pos
		}
		cum += rows
	}

	// unreachable while row < total
	pos.Line = n - 1
	return pos
}

// Paginate produces the frame for target and the state to carry into the
// next call. If lines grew since prev and prev showed the bottom, target
// is replaced by End so the view keeps following new output.
func Paginate(lines Lines, geo Geometry, target int, prev ScrollState) (Frame, ScrollState) {
	g := geo.clamped()
	n := lines.Len()

	if n > prev.LastLineCount && prev.WasAtBottom {
		target = End
	}

	pos := Locate(lines, g.Width, g.Height, target)
	frame := Frame{
		Position:  pos,
		Rows:      make([]Row, 0, g.Height),
		TotalRows: TotalRows(lines, g.Width),
		Geometry:  g,
	}

	offset := pos.Offset
	for i := pos.Line; i < n && len(frame.Rows) < g.Height; i++ {
		runes := []rune(lines.Text(i))
		if len(runes) == 0 {
			frame.Rows = append(frame.Rows, Row{Line: i})
			offset = 0
			continue
		}
		for ; offset < len(runes) && len(frame.Rows) < g.Height; offset += g.Width {
			end := offset + g.Width
			if end > len(runes) {
				end = len(runes)
			}
			frame.Rows = append(frame.Rows, Row{Line: i, Text: string(runes[offset:end])})
		}
		offset = 0
	}

	next := ScrollState{
		Position:      pos.Row,
		WasAtBottom:   pos.AtBottom,
		LastLineCount: n,
		Height:        g.Height,
	}
	return frame, next
}
