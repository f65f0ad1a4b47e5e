// Package cli implements peermailctl, the operator tool for preparing a
// peermail server: schema migrations, local accounts, pass codes and setup
// API tokens.
package cli

import (
	"context"
	"io"

	"github.com/dmitrijs2005/peermail/internal/logging"
	"github.com/dmitrijs2005/peermail/internal/server/config"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/memory"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DSN     string
	Verbose bool
}

// openStore is a test seam.
var openStore = func(ctx context.Context, dsn string) (repomanager.RepositoryManager, error) {
	if dsn == config.MemoryDSN {
		return repomanager.NewMemoryRepositoryManager(memory.NewStore()), nil
	}
	return repomanager.OpenPostgres(ctx, dsn)
}

// NewRootCommand creates the peermailctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "peermailctl",
		Short:         "Administer a peermail server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "PostgreSQL DSN of the server store")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewAccountCommand(opts))
	cmd.AddCommand(NewPassCodeCommand(opts))
	cmd.AddCommand(NewTokenCommand())

	return cmd
}

func (o *RootOptions) logger(w io.Writer) logging.Logger {
	level := "warn"
	if o.Verbose {
		level = "debug"
	}
	return logging.NewJSONLogger(w, level)
}

// withStore opens the store named by --dsn, brings its schema up to date
// and hands it to fn.
func (o *RootOptions) withStore(ctx context.Context, fn func(repomanager.RepositoryManager) error) error {
	if o.DSN == "" {
		return errDSNRequired
	}
	repos, err := openStore(ctx, o.DSN)
	if err != nil {
		return err
	}
	defer repos.Close()

	if err := repos.RunMigrations(ctx); err != nil {
		return err
	}
	return fn(repos)
}
