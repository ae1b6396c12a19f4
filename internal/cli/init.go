package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/frcattend/attend/internal/gate"
	"github.com/frcattend/attend/internal/store"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the attendance database",
		Long: `Create the attendance database file at the configured path, applying
the schema and any pending migrations. Running init on an existing database
is safe and only applies migrations.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Config().Database.Path
			db, err := store.Open(path)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to initialize database", err)
			}
			defer db.Close()

			slog.Info("database ready", "path", path)
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(fmt.Sprintf("Initialized database at %s", path))
		},
	}
}

// NewHashPasswordCommand creates the hash-password command, used to produce
// the scan.password_hash config value.
func NewHashPasswordCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Hash a password for the exit gate",
		Long: `Hash a password with bcrypt for use as scan.password_hash in
attend.yaml. An empty hash in the config disables the exit gate.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := gate.HashPassword(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to hash password", err)
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(hash)
		},
	}
}

// openStore opens the configured database, which must already exist.
// Commands other than init never create a database implicitly; a typo in
// db.path should be an error, not a new empty file.
func openStore(rootOpts *RootOptions) (*store.Store, error) {
	db, err := store.OpenExisting(rootOpts.Config().Database.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return db, nil
}
