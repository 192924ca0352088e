package view

import (
	"strings"
	"testing"
)

type textLines []string

func (l textLines) Len() int          { return len(l) }
func (l textLines) Text(i int) string { return l[i] }

var boundary = textLines{"hello world!", "short", "very long message here"}

func TestRowsFor(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  int
	}{
		{"", 10, 1},
		{"hello world!", 10, 2},
		{"short", 10, 1},
		{"very long message here", 10, 3},
		{"exactly10!", 10, 1},
		{"héllo wörld", 5, 3},
		{"abc", 0, 3},
	}

	for _, tt := range tests {
		if got := RowsFor(tt.text, tt.width); got != tt.want {
			t.Errorf("RowsFor(%q, %d) = %d, want %d", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestLocate_Boundary(t *testing.T) {
	if total := TotalRows(boundary, 10); total != 6 {
		t.Fatalf("TotalRows() = %d, want 6", total)
	}

	// One visible row: every row but the last can be a first row.
	tests := []struct {
		target int
		want   Position
	}{
		{0, Position{Line: 0, Offset: 0, Row: 0}},
		{1, Position{Line: 0, Offset: 10, Row: 1}},
		{2, Position{Line: 1, Offset: 0, Row: 2}},
		{3, Position{Line: 2, Offset: 0, Row: 3}},
		{4, Position{Line: 2, Offset: 10, Row: 4}},
		{5, Position{Line: 2, Offset: 20, Row: 5, AtBottom: true}},
		{6, Position{Line: 2, Offset: 20, Row: 5, AtBottom: true}},
		{End, Position{Line: 2, Offset: 20, Row: 5, AtBottom: true}},
		{-3, Position{Line: 0, Offset: 0, Row: 0}},
	}

	for _, tt := range tests {
		if got := Locate(boundary, 10, 1, tt.target); got != tt.want {
			t.Errorf("Locate(target=%d) = %+v, want %+v", tt.target, got, tt.want)
		}
	}
}

func TestLocate_ClampsToLastFullPage(t *testing.T) {
	// height 3 leaves rows 3..5 on the last page
	got := Locate(boundary, 10, 3, End)
	want := Position{Line: 2, Offset: 0, Row: 3, AtBottom: true}
	if got != want {
		t.Errorf("Locate(End) = %+v, want %+v", got, want)
	}

	got = Locate(boundary, 10, 3, 2)
	if got.AtBottom || got.Line != 1 {
		t.Errorf("Locate(2) = %+v, want line 1 not at bottom", got)
	}
}

func TestLocate_Empty(t *testing.T) {
	for _, target := range []int{0, 5, End} {
		got := Locate(textLines{}, 10, 5, target)
		if got != (Position{AtBottom: true}) {
			t.Errorf("Locate(empty, %d) = %+v, want (0,0,0,bottom)", target, got)
		}
	}
}

func TestLocate_ContentShorterThanViewport(t *testing.T) {
	got := Locate(textLines{"a", "b"}, 80, 24, 0)
	if got != (Position{AtBottom: true}) {
		t.Errorf("Locate() = %+v, want top and at bottom", got)
	}
}

func TestPaginate_Rows(t *testing.T) {
	frame, state := Paginate(boundary, Geometry{Width: 10, Height: 4}, 1, ScrollState{LastLineCount: 3})

	want := []Row{
		{Line: 0, Text: "d!"},
		{Line: 1, Text: "short"},
		{Line: 2, Text: "very long "},
		{Line: 2, Text: "message he"},
	}
	if len(frame.Rows) != len(want) {
		t.Fatalf("got %d rows, want %d: %+v", len(frame.Rows), len(want), frame.Rows)
	}
	for i := range want {
		if frame.Rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, frame.Rows[i], want[i])
		}
	}
	if frame.TotalRows != 6 {
		t.Errorf("TotalRows = %d, want 6", frame.TotalRows)
	}
	if state.Position != 1 || state.WasAtBottom || state.LastLineCount != 3 || state.Height != 4 {
		t.Errorf("state = %+v", state)
	}
}

func TestPaginate_EmptyLineTakesOneRow(t *testing.T) {
	frame, _ := Paginate(textLines{"a", "", "b"}, Geometry{Width: 5, Height: 5}, 0, ScrollState{})
	if len(frame.Rows) != 3 || frame.Rows[1] != (Row{Line: 1}) {
		t.Errorf("rows = %+v, want three rows with an empty middle", frame.Rows)
	}
}

func TestPaginate_AutoFollow(t *testing.T) {
	geo := Geometry{Width: 10, Height: 2}
	lines := textLines{"1", "2", "3"}

	// starts following
	_, state := Paginate(lines, geo, 0, NewScrollState())
	if !state.WasAtBottom || state.Position != 1 {
		t.Fatalf("initial state = %+v, want following at row 1", state)
	}

	// growth while at bottom keeps the tail visible even with a stale target
	lines = append(lines, "4", "5")
	frame, state := Paginate(lines, geo, state.Position, state)
	if !frame.Position.AtBottom || state.Position != 3 {
		t.Errorf("after growth state = %+v, want row 3 at bottom", state)
	}
	if frame.Rows[len(frame.Rows)-1].Text != "5" {
		t.Errorf("last row = %q, want 5", frame.Rows[len(frame.Rows)-1].Text)
	}

	// scrolling up leaves follow mode
	_, state = Paginate(lines, geo, state.Position-1, state)
	if state.WasAtBottom || state.Position != 2 {
		t.Fatalf("after scroll up state = %+v", state)
	}

	// growth while scrolled up honours the explicit target
	lines = append(lines, "6")
	_, state = Paginate(lines, geo, state.Position, state)
	if state.WasAtBottom || state.Position != 2 {
		t.Errorf("growth while scrolled up moved view: %+v", state)
	}
}

func TestPaginate_NoGrowthHonoursTarget(t *testing.T) {
	lines := textLines{"1", "2", "3", "4"}
	geo := Geometry{Width: 10, Height: 2}
	prev := ScrollState{WasAtBottom: true, LastLineCount: 4}

	_, state := Paginate(lines, geo, 0, prev)
	if state.Position != 0 || state.WasAtBottom {
		t.Errorf("state = %+v, want explicit target 0 honoured", state)
	}
}

func TestPaginate_Resize(t *testing.T) {
	lines := textLines{strings.Repeat("x", 40), "tail"}
	prev := NewScrollState()

	frame, state := Paginate(lines, Geometry{Width: 10, Height: 2}, End, prev)
	if frame.TotalRows != 5 || state.Position != 3 {
		t.Fatalf("width 10: total %d, position %d", frame.TotalRows, state.Position)
	}

	// widening shrinks the row count; the stale position clamps
	frame, state = Paginate(lines, Geometry{Width: 40, Height: 2}, state.Position, state)
	if frame.TotalRows != 2 || state.Position != 0 || !state.WasAtBottom {
		t.Errorf("width 40: total %d, state %+v", frame.TotalRows, state)
	}
	if len(frame.Rows) != 2 || frame.Rows[1].Text != "tail" {
		t.Errorf("rows = %+v", frame.Rows)
	}
}

func TestPaginate_DegenerateGeometry(t *testing.T) {
	frame, state := Paginate(textLines{"ab"}, Geometry{}, 0, ScrollState{})
	if frame.Geometry != (Geometry{Width: 1, Height: 1}) {
		t.Errorf("geometry = %+v, want 1x1", frame.Geometry)
	}
	if len(frame.Rows) != 1 || frame.Rows[0].Text != "a" {
		t.Errorf("rows = %+v", frame.Rows)
	}
	if state.Height != 1 {
		t.Errorf("state.Height = %d, want 1", state.Height)
	}
}

func TestPaginate_Empty(t *testing.T) {
	frame, state := Paginate(textLines{}, Geometry{Width: 10, Height: 5}, End, NewScrollState())
	if len(frame.Rows) != 0 || !frame.Position.AtBottom {
		t.Errorf("frame = %+v", frame)
	}
	if !state.WasAtBottom || state.LastLineCount != 0 {
		t.Errorf("state = %+v", state)
	}
}
