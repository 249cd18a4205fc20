// Command lineup keeps a to-do list in a stable, user-controlled order on top
// of a memory, SQLite or Notion record store.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/lineup/internal/config"
	"github.com/steveyegge/lineup/internal/debug"
	"github.com/steveyegge/lineup/internal/ordering"
	"github.com/steveyegge/lineup/internal/storage"
	"github.com/steveyegge/lineup/internal/storage/factory"
	"github.com/steveyegge/lineup/internal/telemetry"
	"github.com/steveyegge/lineup/internal/writer"
)

var (
	// Version is the current version of lineup (overridden by ldflags at build time)
	Version = "0.3.0"
	// Build can be set via ldflags at compile time
	Build = "dev"
)

// app carries per-invocation state shared by every subcommand.
type app struct {
	ctx    context.Context
	cancel context.CancelFunc

	store storage.Store
	svc   *ordering.Service
	now   func() time.Time

	// flags
	backend    string
	dbPath     string
	jsonOutput bool
	verbose    bool
	quiet      bool
}

// noStoreCommands and their subcommands don't open a backend.
var noStoreCommands = map[string]bool{
	"version":    true,
	"rank":       true,
	"config":     true,
	"help":       true,
	"completion": true,
}

func needsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil && c.HasParent(); c = c.Parent() {
		if noStoreCommands[c.Name()] {
			return false
		}
	}
	return true
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lineup",
		Short:         "lineup - an ordered to-do list",
		Long:          `Keeps items in a stable order you control. Completed items always sort after open ones.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.backend, "backend", "", "Record store: memory, sqlite or notion (default from config)")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (default: .lineup/lineup.db)")
	rootCmd.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "Suppress non-essential output (errors only)")

	rootCmd.AddGroup(&cobra.Group{ID: "items", Title: "Working With Items:"})
	rootCmd.AddGroup(&cobra.Group{ID: "setup", Title: "Setup & Diagnostics:"})

	rootCmd.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newToggleCmd(a),
		newMoveCmd(a),
		newReorderCmd(a),
		newArchiveCmd(a),
		newExportCmd(a),
		newRankCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

// setup loads config, applies flag overrides and opens the store.
func (a *app) setup(cmd *cobra.Command) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a.ctx, a.cancel = ctx, cancel

	if err := config.Initialize(); err != nil {
		return err
	}
	a.applyFlagOverrides(cmd)
	a.jsonOutput = config.GetBool("json")

	debug.SetVerbose(a.verbose)
	debug.SetQuiet(a.quiet)
	debug.SetOutput(cmd.ErrOrStderr(), config.LogFormat())

	if !needsStore(cmd) {
		return nil
	}

	ts := config.Telemetry()
	if err := telemetry.Init(ctx, "lineup", Version, telemetry.Settings{
		Enabled:  ts.Enabled,
		Stdout:   ts.Stdout,
		Endpoint: ts.Endpoint,
		Interval: ts.Interval,
		Writer:   cmd.ErrOrStderr(),
	}); err != nil {
		WarnError("telemetry disabled: %v", err)
	}

	store, err := factory.NewFromConfig(ctx)
	if err != nil {
		return err
	}
	a.store = store

	retry := config.Retry()
	w := writer.New(store,
		writer.WithMaxRetries(retry.MaxAttempts),
		writer.WithBaseDelay(retry.BaseDelay),
		writer.WithNotify(func(id string, attempt int, err error, delay time.Duration) {
			debug.Logf("%s: attempt %d conflicted (%v), retrying in %s", id, attempt, err, delay)
		}),
	)
	a.svc = ordering.New(store, w, ordering.WithClock(a.now))

	debug.Logger().Debug("store opened", "backend", config.Backend(), "actor", config.GetString("actor"))
	return nil
}

// applyFlagOverrides pushes explicitly set flags into config so they take
// precedence over env vars and config files.
func (a *app) applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("backend") {
		config.Set("backend", a.backend)
	}
	if flags.Changed("db") {
		config.Set("db", a.dbPath)
	}
	if flags.Changed("json") {
		config.Set("json", a.jsonOutput)
	}
}

func (a *app) teardown() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			WarnError("closing store: %v", err)
		}
		a.store = nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		debug.Logf("telemetry shutdown: %v", err)
	}
	cancel()
	if a.cancel != nil {
		a.cancel()
	}
}

// execute runs one command line. The store is closed even when the command
// fails.
func execute(args []string, stdout, stderr io.Writer) error {
	a := &app{now: time.Now}
	defer a.teardown()

	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.Execute()
}

func main() {
	if err := execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		FatalError("%v", err)
	}
}

func versionString() string {
	return fmt.Sprintf("lineup version %s (%s)", Version, Build)
}
