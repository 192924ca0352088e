package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/TimelordUK/mtail/pkg/logformat"
)

// Config holds all application configuration
type Config struct {
	Watch       WatchConfig      `toml:"watch"`
	Store       StoreConfig      `toml:"store"`
	Display     DisplayConfig    `toml:"display"`
	Theme       ThemeConfig      `toml:"theme"`
	LogLevels   LogLevelConfig   `toml:"log_levels"`
	Keybindings KeybindingConfig `toml:"keybindings"`
}

// WatchConfig controls how file changes are detected
type WatchConfig struct {
	// Policy is "content" (writes only) or "any"
	Policy string `toml:"policy"`
	// PollMs > 0 polls at that interval instead of using fsnotify
	PollMs int `toml:"poll_ms"`
}

// StoreConfig selects the record store
type StoreConfig struct {
	Backend        string `toml:"backend"` // "sqlite" or "memory"
	Dir            string `toml:"dir"`
	MemoryCapacity int    `toml:"memory_capacity"`
}

// DisplayConfig holds display options
type DisplayConfig struct {
	TickMs          int    `toml:"tick_ms"`
	SourcePrefix    string `toml:"source_prefix"` // "path", "base" or "none"
	TabWidth        int    `toml:"tab_width"`
	ColorizeLevels  bool   `toml:"colorize_levels"`
	SyntaxHighlight bool   `toml:"syntax_highlight"`
	SyntaxTheme     string `toml:"syntax_theme"`
}

// ThemeConfig defines color schemes
type ThemeConfig struct {
	StatusBar     string         `toml:"status_bar"`
	StatusBarText string         `toml:"status_bar_text"`
	Filler        string         `toml:"filler"`
	Levels        LogLevelColors `toml:"levels"`
}

// LogLevelColors defines colors for each log level
type LogLevelColors struct {
	Trace string `toml:"trace"`
	Debug string `toml:"debug"`
	Info  string `toml:"info"`
	Warn  string `toml:"warn"`
	Error string `toml:"error"`
	Fatal string `toml:"fatal"`
}

// LogLevelConfig defines log level detection patterns
type LogLevelConfig struct {
	TracePatterns []string `toml:"trace_patterns"`
	DebugPatterns []string `toml:"debug_patterns"`
	InfoPatterns  []string `toml:"info_patterns"`
	WarnPatterns  []string `toml:"warn_patterns"`
	ErrorPatterns []string `toml:"error_patterns"`
	FatalPatterns []string `toml:"fatal_patterns"`
}

// Patterns converts the detection config for the level detector
func (c LogLevelConfig) Patterns() logformat.Patterns {
	return logformat.Patterns{
		Trace: c.TracePatterns,
		Debug: c.DebugPatterns,
		Info:  c.InfoPatterns,
		Warn:  c.WarnPatterns,
		Error: c.ErrorPatterns,
		Fatal: c.FatalPatterns,
	}
}

// KeybindingConfig allows customizing keybindings
type KeybindingConfig struct {
	Quit       []string `toml:"quit"`
	ScrollUp   []string `toml:"scroll_up"`
	ScrollDown []string `toml:"scroll_down"`
	PageUp     []string `toml:"page_up"`
	PageDown   []string `toml:"page_down"`
	Bottom     []string `toml:"bottom"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Watch: WatchConfig{
			Policy: "content",
		},
		Store: StoreConfig{
			Backend:        "sqlite",
			Dir:            "db",
			MemoryCapacity: 100000,
		},
		Display: DisplayConfig{
			TickMs:         250,
			SourcePrefix:   "path",
			TabWidth:       4,
			ColorizeLevels: true,
			SyntaxTheme:    "monokai",
		},
		Theme: ThemeConfig{
			StatusBar:     "236", // Darker gray background
			StatusBarText: "252", // Light gray text
			Filler:        "240",
			Levels: LogLevelColors{
				Trace: "240", // Dark gray
				Debug: "244", // Medium gray
				Info:  "250", // Light gray
				Warn:  "214", // Orange
				Error: "167", // Soft red
				Fatal: "196", // Bright red
			},
		},
		LogLevels: LogLevelConfig{
			TracePatterns: []string{"[TRC]", "[TRACE]", "TRACE", "TRC"},
			DebugPatterns: []string{"[DBG]", "[DEBUG]", "DEBUG", "DBG"},
			InfoPatterns:  []string{"[INF]", "[INFO]", "INFO", "INF"},
			WarnPatterns:  []string{"[WRN]", "[WARN]", "[WARNING]", "WARN", "WRN", "WARNING"},
			ErrorPatterns: []string{"[ERR]", "[ERROR]", "ERROR", "ERR"},
			FatalPatterns: []string{"[FTL]", "[FATAL]", "FATAL", "FTL", "[CRIT]", "CRITICAL"},
		},
		Keybindings: KeybindingConfig{
			Quit:       []string{"q"},
			ScrollUp:   []string{"k", "up"},
			ScrollDown: []string{"j", "down"},
			PageUp:     []string{"pgup"},
			PageDown:   []string{"pgdown"},
			Bottom:     []string{"g"},
		},
	}
}

// Load reads path over the defaults. An empty path means the XDG location;
// a missing file there is not an error, a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = GetConfigPath()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the rest of the program cannot act on
func (c *Config) Validate() error {
	switch c.Watch.Policy {
	case "", "content", "any":
	default:
		return fmt.Errorf("watch.policy: unknown policy %q", c.Watch.Policy)
	}
	if c.Watch.PollMs < 0 {
		return fmt.Errorf("watch.poll_ms: must not be negative")
	}

	switch c.Store.Backend {
	case "", "sqlite", "memory":
	default:
		return fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}

	if c.Display.TickMs <= 0 {
		return fmt.Errorf("display.tick_ms: must be positive")
	}
	if c.Display.TabWidth <= 0 {
		return fmt.Errorf("display.tab_width: must be positive")
	}
	switch c.Display.SourcePrefix {
	case "", "path", "base", "none":
	default:
		return fmt.Errorf("display.source_prefix: unknown mode %q", c.Display.SourcePrefix)
	}
	return nil
}

// Tick returns the render loop period
func (c *Config) Tick() time.Duration {
	return time.Duration(c.Display.TickMs) * time.Millisecond
}

// PollInterval returns the polling period, zero when fsnotify is used
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Watch.PollMs) * time.Millisecond
}

// Save writes cfg to path, or to the XDG location when path is empty
func Save(cfg *Config, path string) error {
	if path == "" {
		path = GetConfigPath()
	}
	if path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mtail", "config.toml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mtail", "config.toml")
}
