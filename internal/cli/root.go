// Package cli implements the motherai command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rpggio/motherai/internal/app"
	"github.com/rpggio/motherai/internal/config"
	"github.com/rpggio/motherai/internal/sqlite"
	"github.com/rpggio/motherai/internal/telemetry"
	"github.com/spf13/cobra"
)

// Options carries the process streams and build information.
type Options struct {
	Version string
	In      io.Reader
	Out     io.Writer
	Err     io.Writer
}

// annotationOffline marks commands that never touch the backend or the
// session store.
const annotationOffline = "offline"

type flags struct {
	apiURL    string
	statePath string
	logLevel  string
	logPath   string
	timeout   time.Duration
	plain     bool
}

// runtime is the state shared by all subcommands of one invocation.
type runtime struct {
	opts  Options
	flags flags

	cfg     config.Config
	logger  *slog.Logger
	metrics *telemetry.Metrics
	nav     *navigator
	app     *app.App
	out     *printer
	closers []io.Closer
}

// Execute runs the command line and returns the process exit code.
func Execute(version string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand(Options{Version: version, In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand builds the command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	r := &runtime{opts: opts}

	root := &cobra.Command{
		Use:   "motherai",
		Short: "Drive the staged AI development platform from the terminal",
		Long: `motherai talks to the staged AI development platform: sign in, create
projects, chat with the agent of each of the 14 development phases and
browse the generated files.

Quick Start:
  motherai login --email you@example.com
  motherai projects create "Todo app"
  motherai chat <project-id> --phase 1 "Users should be able to share lists"`,
		Version:       opts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[annotationOffline] == "true" || cmd.Name() == "help" {
				r.out = &printer{out: r.opts.Out, plain: r.flags.plain}
				return nil
			}
			return r.setup(cmd.Context())
		},
	}
	root.SetIn(opts.In)
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	pf := root.PersistentFlags()
	pf.StringVar(&r.flags.apiURL, "api-url", "", "Backend base URL (overrides MOTHERAI_API_BASE_URL)")
	pf.StringVar(&r.flags.statePath, "state", "", "Path of the session database (overrides MOTHERAI_STATE_PATH)")
	pf.StringVar(&r.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&r.flags.logPath, "log-file", "", "Also write debug logs to this file")
	pf.DurationVar(&r.flags.timeout, "timeout", 0, "Timeout of non-streaming requests")
	pf.BoolVar(&r.flags.plain, "plain", false, "Disable colors and markdown rendering")

	root.AddCommand(
		newLoginCommand(r),
		newLogoutCommand(r),
		newRegisterCommand(r),
		newWhoamiCommand(r),
		newProfileCommand(r),
		newUsageCommand(r),
		newPhasesCommand(r),
		newProjectsCommand(r),
		newChatCommand(r),
		newFilesCommand(r),
		newAdminCommand(r),
		newMCPCommand(r),
	)
	return root
}

func (r *runtime) setup(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			_ = r.close()
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if r.flags.apiURL != "" {
		cfg.API.BaseURL = r.flags.apiURL
	}
	if r.flags.statePath != "" {
		cfg.State.Path = r.flags.statePath
	}
	if r.flags.logLevel != "" {
		cfg.Log.Level = r.flags.logLevel
	}
	if r.flags.logPath != "" {
		cfg.Log.Path = r.flags.logPath
	}
	if r.flags.timeout > 0 {
		cfg.API.RequestTimeout = r.flags.timeout
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	r.cfg = cfg

	logger, logCloser, err := newLogger(r.opts.Err, cfg.Log.Level, cfg.Log.Path)
	if err != nil {
		return fmt.Errorf("log file error: %w", err)
	}
	r.closers = append(r.closers, logCloser)
	r.logger = logger

	if err := ensureDir(cfg.State.Path); err != nil {
		return fmt.Errorf("preparing state path: %w", err)
	}
	db, err := sqlite.New(cfg.State.Path)
	if err != nil {
		return err
	}
	r.closers = append(r.closers, db)
	if err := db.RunMigrations(); err != nil {
		return err
	}

	r.metrics = telemetry.New()
	r.nav = &navigator{w: r.opts.Err}
	r.out = &printer{out: r.opts.Out, plain: r.flags.plain}
	r.app = app.New(sqlite.NewTokenStore(db, logger.With("component", "tokenstore")), app.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.RequestTimeout,
		Navigator: r.nav,
		Metrics:   r.metrics,
		Logger:    logger,
	})

	state, err := r.app.Sessions.Restore(ctx)
	if err != nil {
		logger.Warn("could not restore session", "error", err)
	}
	logger.Debug("session restored", "state", state, "api", cfg.API.BaseURL)
	return nil
}

// run wraps a command body so the session store and log file are closed
// whatever the outcome.
func (r *runtime) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer func() {
			if err := r.close(); err != nil && r.logger != nil {
				r.logger.Warn("failed to release resources", "error", err)
			}
		}()
		return fn(cmd, args)
	}
}

func (r *runtime) close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i].Close())
	}
	r.closers = nil
	return errors.Join(errs...)
}

func ensureDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
