// Package cli implements the purchase command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/purchase/internal/paths"
	"github.com/mesh-intelligence/purchase/internal/sqlite"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

// exitError carries the process exit code for an error returned by a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(format string, args ...any) error {
	return &exitError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

func sysError(format string, args ...any) error {
	return &exitError{code: exitSysError, err: fmt.Errorf(format, args...)}
}

// exitCode maps an error returned by Execute to a process exit code.
// Errors without an explicit code are flag or argument errors from cobra.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// NewRootCmd creates the top-level "purchase" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "purchase",
		Short: "Local customer, product and purchase storage",
		Long: "Purchase keeps customers, products and the relations between them\n" +
			"in a local SQLite database.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/purchase)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/purchase)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log database lifecycle events to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(flags))
	root.AddCommand(newCustomerCmd(flags))
	root.AddCommand(newProductCmd(flags))
	root.AddCommand(newRelationCmd(flags))
	root.AddCommand(newSchemaCmd(flags))
	root.AddCommand(newURICmd(flags))

	return root
}

// Execute loads an optional .env file, runs the root command and exits with
// the appropriate code.
func Execute() {
	_ = godotenv.Load()

	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "purchase:", err)
		os.Exit(exitCode(err))
	}
}

// openBackend resolves directories and configuration and opens the database.
// The caller must Close the returned backend.
func openBackend(cmd *cobra.Command, flags *rootFlags) (*sqlite.Backend, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, sysError("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, sysError("load config: %w", err)
	}
	cfg.DataDir, err = paths.ResolveDataDir(flags.dataDir, cfg.DataDir)
	if err != nil {
		return nil, sysError("resolve data dir: %w", err)
	}

	backend := sqlite.NewBackend(sqlite.WithLogger(newLogger(cmd.ErrOrStderr(), flags.verbose)))
	if err := backend.Open(cfg); err != nil {
		return nil, sysError("open database: %w", err)
	}
	return backend, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
