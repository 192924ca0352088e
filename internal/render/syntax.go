package render

import (
	"bytes"
	"path/filepath"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"

	"github.com/TimelordUK/mtail/internal/source"
)

const plaintext = "plaintext"

// SyntaxRenderer highlights each row with the lexer matching the file the
// line came from. Lines from files without a known type pass through.
type SyntaxRenderer struct {
	theme string

	mu      sync.Mutex
	lexerOf map[string]string // file id -> lexer name
}

// NewSyntaxRenderer creates a syntax highlighting renderer
func NewSyntaxRenderer(theme string) *SyntaxRenderer {
	if theme == "" {
		theme = "monokai"
	}
	return &SyntaxRenderer{
		theme:   theme,
		lexerOf: make(map[string]string),
	}
}

// Render applies syntax highlighting to the segment
func (r *SyntaxRenderer) Render(line source.Line, segment string) string {
	if segment == "" {
		return ""
	}

	lexer := r.lexerFor(line.Record.FileID)
	if lexer == plaintext {
		return segment
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, segment, lexer, "terminal16m", r.theme); err != nil {
		return segment
	}

	// quick.Highlight may append a newline
	highlighted := strings.ReplaceAll(buf.String(), "\n", "")
	return strings.ReplaceAll(highlighted, "\r", "")
}

func (r *SyntaxRenderer) lexerFor(fileID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name, ok := r.lexerOf[fileID]; ok {
		return name
	}

	name := plaintext
	if IsSyntaxHighlightable(fileID) {
		if lexer := lexers.Match(filepath.Base(fileID)); lexer != nil {
			name = lexer.Config().Name
		}
	}
	r.lexerOf[fileID] = name
	return name
}

var syntaxExts = map[string]bool{
	".go": true, ".rs": true, ".py": true, ".js": true, ".ts": true,
	".c": true, ".cpp": true, ".h": true, ".java": true, ".rb": true,
	".sh": true, ".bash": true, ".yaml": true, ".yml": true, ".json": true,
	".toml": true, ".xml": true, ".html": true, ".css": true, ".sql": true,
	".md": true, ".ini": true,
}

// IsSyntaxHighlightable reports whether the file name suggests a structured
// format worth highlighting. Plain .log files are left to level colouring.
func IsSyntaxHighlightable(filename string) bool {
	return syntaxExts[strings.ToLower(filepath.Ext(filename))]
}
