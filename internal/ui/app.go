package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/TimelordUK/mtail/internal/config"
	"github.com/TimelordUK/mtail/internal/consolidate"
	"github.com/TimelordUK/mtail/internal/render"
	"github.com/TimelordUK/mtail/internal/source"
	"github.com/TimelordUK/mtail/internal/store"
	"github.com/TimelordUK/mtail/internal/view"
	"github.com/TimelordUK/mtail/pkg/logformat"
)

// State is the render loop state
type State int

const (
	StateRunning State = iota
	StateExiting
)

// Flusher moves buffered lines into the store
type Flusher interface {
	Flush() consolidate.FlushStats
	Failed() []consolidate.FailedSource
}

// Options wires the model to the rest of the program
type Options struct {
	Writer   Flusher
	Store    store.Reader
	Config   *config.Config
	Logger   *zap.Logger
	Renderer render.Renderer // defaults to render.New(Config)
	Files    int             // number of files on the command line
}

type tickMsg time.Time

// Model is the main application model. All store access and scroll state
// live on the bubbletea goroutine.
type Model struct {
	writer  Flusher
	store   store.Reader
	log     *zap.Logger
	keys    keyMap
	tick    time.Duration
	files   int
	builder *source.Builder

	viewport *view.Viewport
	snapshot *source.Snapshot
	frame    view.Frame
	scroll   view.ScrollState
	target   int

	pending []Action
	state   State

	storeErr error
	stats    consolidate.FlushStats
	lastID   int64 // newest record seen, grows even when a ring store stays full

	width  int
	height int

	statusStyle lipgloss.Style
	helpStyle   lipgloss.Style
}

// NewModel creates a new application model
func NewModel(opts Options) (*Model, error) {
	if opts.Writer == nil || opts.Store == nil {
		return nil, errors.New("ui: writer and store are required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = render.New(cfg)
	}

	prefix, err := source.ParsePrefixMode(cfg.Display.SourcePrefix)
	if err != nil {
		return nil, err
	}
	srcOpts := source.Options{
		Prefix:     prefix,
		TabWidth:   cfg.Display.TabWidth,
		Timestamps: logformat.NewTimestampParser(),
	}
	if cfg.Display.ColorizeLevels {
		srcOpts.Detector = logformat.NewLevelDetector(cfg.LogLevels.Patterns())
	}

	vp := view.NewViewport(80, 22)
	vp.SetRenderer(renderer)
	vp.SetFillerColor(cfg.Theme.Filler)

	m := &Model{
		writer:   opts.Writer,
		store:    opts.Store,
		log:      log.Named("ui"),
		keys:     newKeyMap(cfg.Keybindings),
		tick:     cfg.Tick(),
		files:    opts.Files,
		builder:  source.NewBuilder(srcOpts),
		viewport: vp,
		scroll:   view.NewScrollState(),
		target:   view.End,
		state:    StateRunning,
		width:    80,
		height:   24,
		statusStyle: lipgloss.NewStyle().
			Background(lipgloss.Color(cfg.Theme.StatusBar)).
			Foreground(lipgloss.Color(cfg.Theme.StatusBarText)),
		helpStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
	if m.tick <= 0 {
		m.tick = 250 * time.Millisecond
	}

	// first frame before the first tick
	m.flushAndQuery()
	return m, nil
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return m.tickCmd()
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.log.Debug("interrupt")
			m.state = StateExiting
			return m, tea.Quit
		}
		if a := m.keys.action(msg); a != ActionNone {
			m.pending = append(m.pending, a)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Reserve 2 lines for status bar and help
		m.viewport.SetSize(msg.Width, msg.Height-2)
		if m.scroll.WasAtBottom {
			m.target = view.End
		}
		m.paginate()
		return m, nil

	case tickMsg:
		m.step()
		if m.state == StateExiting {
			return m, tea.Quit
		}
		return m, m.tickCmd()
	}

	return m, nil
}

// step runs one tick: at most one queued action, then flush, query and
// paginate
func (m *Model) step() {
	if len(m.pending) > 0 {
		a := m.pending[0]
		m.pending = m.pending[1:]
		m.apply(a)
		if m.state == StateExiting {
			return
		}
	}
	m.flushAndQuery()
}

func (m *Model) apply(a Action) {
	m.log.Debug("action", zap.Stringer("action", a), zap.Int("position", m.scroll.Position))

	height := m.viewport.Geometry().Height
	switch a {
	case ActionScrollUp:
		m.target = m.scroll.Position - 1
	case ActionScrollDown:
		m.target = m.scroll.Position + 1
	case ActionPageUp:
		m.target = m.scroll.Position - height
	case ActionPageDown:
		m.target = m.scroll.Position + height
	case ActionJumpToEnd:
		m.target = view.End
	case ActionQuit:
		m.state = StateExiting
	}
}

func (m *Model) flushAndQuery() {
	m.stats = m.writer.Flush()

	records, err := m.store.QueryAll()
	if err != nil {
		if m.storeErr == nil {
			m.log.Error("query failed, keeping previous lines", zap.Error(err))
		}
		m.storeErr = err
	} else {
		if m.storeErr != nil {
			m.log.Info("store recovered")
		}
		m.storeErr = nil
		m.snapshot = m.builder.Build(records)
		if n := len(records); n > 0 && records[n-1].ID != m.lastID {
			m.lastID = records[n-1].ID
			if m.scroll.WasAtBottom {
				m.target = view.End
			}
		}
	}

	m.paginate()
}

func (m *Model) paginate() {
	m.frame, m.scroll = view.Paginate(m.snapshot, m.viewport.Geometry(), m.target, m.scroll)
	m.target = m.scroll.Position
}

// View implements tea.Model
func (m *Model) View() string {
	if m.state == StateExiting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.viewport.Render(m.snapshot, m.frame))
	b.WriteString("\n")
	b.WriteString(m.statusStyle.Width(m.width).Render(m.statusLine()))
	b.WriteString("\n")
	b.WriteString(m.helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m *Model) statusLine() string {
	row := 0
	if m.frame.TotalRows > 0 {
		row = m.frame.Position.Row + 1
	}
	parts := []string{
		" mtail",
		fmt.Sprintf("row %d/%d", row, m.frame.TotalRows),
		fmt.Sprintf("%.0f%%", view.PercentScrolled(m.frame)),
	}
	if m.scroll.WasAtBottom {
		parts = append(parts, "[follow]")
	}
	if m.snapshot.Len() > 0 {
		if ts, ok := m.snapshot.Timestamp(m.frame.Position.Line); ok {
			parts = append(parts, logformat.FormatTime(ts))
		}
	}

	watching := m.files
	if failed := len(m.writer.Failed()); failed > 0 {
		watching -= failed
		parts = append(parts, fmt.Sprintf("%d/%d files, %d failed", watching, m.files, failed))
	} else if m.files > 0 {
		parts = append(parts, fmt.Sprintf("%d files", m.files))
	}
	if m.storeErr != nil {
		parts = append(parts, "store unavailable: "+m.storeErr.Error())
	}
	return strings.Join(parts, "  ")
}

func (m *Model) helpLine() string {
	var parts []string
	for _, b := range m.keys.bindings() {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, h.Key+":"+h.Desc)
	}
	return strings.Join(parts, "  ")
}

// State returns the loop state
func (m *Model) State() State {
	return m.state
}

// Frame returns the last paginated frame
func (m *Model) Frame() view.Frame {
	return m.frame
}

// ScrollState returns the scroll state carried into the next frame
func (m *Model) ScrollState() view.ScrollState {
	return m.scroll
}

// Pending returns how many key actions wait for a tick
func (m *Model) Pending() int {
	return len(m.pending)
}

// StoreErr returns the last query error, nil once the store answers again
func (m *Model) StoreErr() error {
	return m.storeErr
}
