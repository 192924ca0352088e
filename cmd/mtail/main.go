// Package main is the entry point for the mtail CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TimelordUK/mtail/internal/config"
	"github.com/TimelordUK/mtail/internal/consolidate"
	"github.com/TimelordUK/mtail/internal/logging"
	"github.com/TimelordUK/mtail/internal/store"
	"github.com/TimelordUK/mtail/internal/tail"
	"github.com/TimelordUK/mtail/internal/ui"
)

// version is set at build time via -ldflags.
var version = "dev"

// Exit codes
const (
	exitOK         = 0
	exitUnexpected = 1
	exitUsage      = 2
	exitConfig     = 3
	exitLogger     = 4
	exitStore      = 5
	exitUI         = 6
)

// exitError carries the process exit code for a failed run
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func fail(code int, format string, args ...any) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}

// exitCode maps an error from the root command to a process exit code.
// Errors without a code come from cobra's argument and flag parsing.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUsage
}

type options struct {
	debugOutput string
	configPath  string
	dbDir       string
	backend     string
	writeConfig bool
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, os.Args[1:], os.Stderr)
}

func execute(ctx context.Context, args []string, stderr io.Writer) int {
	root := rootCmd()
	root.SetArgs(args)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	code := exitCode(err)
	// cobra already reported usage errors
	if err != nil && code != exitUsage {
		fmt.Fprintf(stderr, "mtail: %v\n", err)
	}
	return code
}

func rootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:     "mtail [flags] FILE...",
		Short:   "Tail several log files into one scrollable view",
		Version: version,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.writeConfig {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// past argument parsing, failures are not usage errors
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			if opts.writeConfig {
				return writeConfig(cmd, opts)
			}
			return runTail(cmd.Context(), cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.debugOutput, "debug-output", "o", "", "write diagnostic log to `PATH`")
	f.StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/mtail/config.toml)")
	f.StringVar(&opts.dbDir, "db-dir", "", "directory for the record store (default db)")
	f.StringVar(&opts.backend, "store", "", "record store backend: sqlite or memory")
	f.BoolVar(&opts.writeConfig, "write-config", false, "write the effective config to the --config path (or the default location) and exit")
	return cmd
}

// loadConfig applies command line overrides on top of the config file
func loadConfig(cmd *cobra.Command, opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	return applyOverrides(cmd, opts, cfg)
}

func applyOverrides(cmd *cobra.Command, opts options, cfg *config.Config) (*config.Config, error) {
	if cmd.Flags().Changed("db-dir") {
		cfg.Store.Dir = opts.dbDir
	}
	if cmd.Flags().Changed("store") {
		cfg.Store.Backend = opts.backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// writeConfig saves the defaults, merged with an existing file and the
// command line overrides, so they can be edited by hand
func writeConfig(cmd *cobra.Command, opts options) error {
	path := opts.configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	if path == "" {
		return fail(exitConfig, "config: no default location, use --config")
	}

	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = config.DefaultConfig(), nil
	}
	if err != nil {
		return fail(exitConfig, "config: %w", err)
	}
	if cfg, err = applyOverrides(cmd, opts, cfg); err != nil {
		return fail(exitConfig, "config: %w", err)
	}
	if err := config.Save(cfg, path); err != nil {
		return fail(exitConfig, "write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

func runTail(ctx context.Context, cmd *cobra.Command, opts options, files []string) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return fail(exitConfig, "config: %w", err)
	}

	log, closeLog, err := logging.New(opts.debugOutput)
	if err != nil {
		return fail(exitLogger, "debug output: %w", err)
	}
	defer closeLog()
	log.Info("starting", zap.String("version", version), zap.Strings("files", files))

	st, err := store.Open(store.Options{
		Backend:  cfg.Store.Backend,
		Dir:      cfg.Store.Dir,
		Capacity: cfg.Store.MemoryCapacity,
	}, time.Now())
	if err != nil {
		log.Error("store open failed", zap.Error(err))
		return fail(exitStore, "record store: %w", err)
	}
	defer st.Close()
	if sq, ok := st.(*store.SQLite); ok {
		log.Info("store opened", zap.String("path", sq.Path()))
	}

	policy, err := tail.PolicyByName(cfg.Watch.Policy)
	if err != nil {
		return fail(exitConfig, "config: %w", err)
	}

	w, err := consolidate.NewWriter(files, st,
		consolidate.WithLogger(log),
		consolidate.WithPolicy(policy),
		consolidate.WithPollInterval(cfg.PollInterval()))
	if err != nil {
		return fail(exitUnexpected, "%w", err)
	}
	defer w.Close()
	w.Run(ctx)

	model, err := ui.NewModel(ui.Options{
		Writer: w,
		Store:  st,
		Config: cfg,
		Logger: log,
		Files:  len(files),
	})
	if err != nil {
		return fail(exitUnexpected, "%w", err)
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			log.Info("stopped by signal")
			return nil
		}
		log.Error("terminal UI failed", zap.Error(err))
		return fail(exitUI, "terminal UI: %w", err)
	}

	for _, f := range w.Failed() {
		log.Warn("file was not tailed to the end", zap.String("file", f.Path), zap.Error(f.Err))
	}
	log.Info("exiting")
	return nil
}
