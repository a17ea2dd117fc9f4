// Package cli provides the students command line: one subcommand per
// operation on the students table.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aanand-mishra/students/internal/config"
	"github.com/aanand-mishra/students/internal/logger"
	"github.com/aanand-mishra/students/internal/storage"
	"github.com/aanand-mishra/students/internal/storage/sqlstore"
)

var version = "1.0.0"

// Opener connects to the store described by cfg.
type Opener func(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Storage, error)

// OpenSQL is the default Opener.
func OpenSQL(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Storage, error) {
	s, err := sqlstore.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Global holds the flags shared by every subcommand.
type Global struct {
	ConfigPath string
	List       bool
	Verbose    bool
}

// AddToFlagSet registers the global flags.
func (g *Global) AddToFlagSet(set *pflag.FlagSet) {
	set.StringVar(&g.ConfigPath, "config", "", "path to a YAML or .env config file (default $CONFIG_PATH or ./.env)")
	set.BoolVarP(&g.List, "list", "l", false, "list the table after a change")
	set.BoolVarP(&g.Verbose, "verbose", "v", false, "write logs to stderr")
}

type app struct {
	open   Opener
	global Global
}

// NewRootCommand builds the command tree. open is called at most once per
// invocation, and only after the arguments have been validated.
func NewRootCommand(open Opener) *cobra.Command {
	a := &app{open: open}

	root := &cobra.Command{
		Use:           "students <command>",
		Short:         "Create, list, update and delete rows of the students table.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Long: `students runs single-statement CRUD operations against the students table.

The connection is configured with the PGHOST, PGPORT, PGUSER, PGPASSWORD and
PGDATABASE environment variables, a .env file in the working directory, or a
file passed with --config. Set DB_DRIVER to use sqlite3, mysql or sqlserver
instead of postgres.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return usageError(errors.New("a command is required"))
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})
	a.global.AddToFlagSet(root.PersistentFlags())

	root.AddCommand(
		a.newGetAllCommand(),
		a.newGetCommand(),
		a.newAddCommand(),
		a.newUpdateEmailCommand(),
		a.newDeleteCommand(),
		a.newSetupCommand(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	root := NewRootCommand(OpenSQL)
	err := root.Execute()
	if err == nil {
		return ExitOK
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	code := ExitCode(err)
	if code == ExitUsage {
		fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", root.Name())
	}
	return code
}

// withStore loads the configuration, connects and runs fn. The store is
// closed on every return path.
//
// Commands validate their flags before calling withStore, so a usage error
// never loads config or opens a connection. Config and connection failures
// exit with ExitFailure; errors from fn keep the code fn gave them.
func (a *app) withStore(cmd *cobra.Command, fn func(ctx context.Context, st storage.Storage, log *slog.Logger) error) error {
	cfg, err := config.Load(a.global.ConfigPath)
	if err != nil {
		return &Error{Code: ExitFailure, Err: err}
	}

	var logOut io.Writer = io.Discard
	if a.global.Verbose {
		logOut = cmd.ErrOrStderr()
	}
	log := logger.New(cfg.Env, cfg.LogFile, logOut).With(slog.String("command", cmd.Name()))
	log.Debug("connecting", slog.String("database", cfg.SafeString()))

	ctx := cmd.Context()
	st, err := a.open(ctx, cfg, log)
	if err != nil {
		log.Error("connection failed", slog.String("error", err.Error()))
		return &Error{Code: ExitFailure, Err: errors.WithMessage(err, "connection failed")}
	}
	defer st.Close()

	if err := fn(ctx, st, log); err != nil {
		log.Error("command failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// relist prints the whole table after a change when --list was given.
//
// The change has already been committed when relist runs, so the command
// has succeeded whatever happens here: a failed listing is reported as a
// warning on stderr and never changes the exit code.
func (a *app) relist(ctx context.Context, cmd *cobra.Command, st storage.Storage, log *slog.Logger) {
	if !a.global.List {
		return
	}
	students, err := st.GetStudents(ctx)
	if err != nil {
		log.Warn("listing after change failed", slog.String("error", err.Error()))
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: change committed, but listing students failed: %v\n", err)
		return
	}
	printStudents(cmd.OutOrStdout(), students)
}
