package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frcattend/attend/internal/export"
	"github.com/frcattend/attend/internal/model"
	"github.com/frcattend/attend/internal/store"
)

// ExportOptions holds flags for the export subcommands.
type ExportOptions struct {
	*RootOptions
	Output string
}

// NewExportCommand creates the export command group.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the database",
	}
	cmd.AddCommand(newExportJSONCommand(rootOpts))
	cmd.AddCommand(newExportExcelCommand(rootOpts))
	cmd.AddCommand(newExportCalendarCommand(rootOpts))
	return cmd
}

// seasonBounds reads the configured season boundaries, validated at load.
func seasonBounds(rootOpts *RootOptions) (model.Date, model.Date, error) {
	year, err := rootOpts.Config().Season.SchoolYear()
	if err != nil {
		return model.Date{}, model.Date{}, err
	}
	build, err := rootOpts.Config().Season.BuildSeason()
	if err != nil {
		return model.Date{}, model.Date{}, err
	}
	return year, build, nil
}

// outputFile opens the -o target, defaulting to stdout.
func outputFile(path string) (*os.File, func(), error) {
	if path == "" {
		return nil, nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func newExportJSONCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:           "json",
		Short:         "Dump every record as JSON",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			w := cmd.OutOrStdout()
			if file, done, err := outputFile(opts.Output); err != nil {
				return WrapExitError(ExitCommandError, "failed to create output file", err)
			} else if file != nil {
				defer done()
				w = file
			}
			if err := export.WriteJSON(cmd.Context(), db, w); err != nil {
				return WrapExitError(ExitFailure, "export failed", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func newExportExcelCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:           "xlsx",
		Short:         "Write a roster and attendance workbook",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			year, build, err := seasonBounds(rootOpts)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid season config", err)
			}
			if err := export.WriteExcel(cmd.Context(), db, year, build, opts.Output); err != nil {
				return WrapExitError(ExitFailure, "export failed", err)
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(fmt.Sprintf("Wrote %s", opts.Output))
		},
	}
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "attendance.xlsx", "output file")
	return cmd
}

func newExportCalendarCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:           "ics",
		Short:         "Write recorded events as an iCalendar feed",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			w := cmd.OutOrStdout()
			if file, done, err := outputFile(opts.Output); err != nil {
				return WrapExitError(ExitCommandError, "failed to create output file", err)
			} else if file != nil {
				defer done()
				w = file
			}
			if err := export.WriteCalendar(cmd.Context(), db, w); err != nil {
				return WrapExitError(ExitFailure, "export failed", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dump.json>",
		Short: "Restore a JSON dump into the database",
		Long: `Restore a JSON dump produced by export json. The dump is validated
against the export schema before anything is written; a rejected dump leaves
the database untouched. Import is a trusted restore path: records are loaded
as-is, without intake-time checks.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open dump", err)
			}
			defer file.Close()

			db, err := store.Open(rootOpts.Config().Database.Path)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer db.Close()

			if err := export.ImportJSON(cmd.Context(), db, file); err != nil {
				return WrapExitError(ExitFailure, "import failed", err)
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(fmt.Sprintf("Imported %s", args[0]))
		},
	}
}
