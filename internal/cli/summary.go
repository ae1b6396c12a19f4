package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/frcattend/attend/internal/report"
)

// SummaryOptions holds flags for the summary command.
type SummaryOptions struct {
	*RootOptions
	Filter string
	All    bool
	Output string
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SummaryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Write a Markdown attendance summary",
		Long: `Write a Markdown attendance summary: database info plus a per-student
table of school-year and build-season checkin totals.

--filter takes a boolean expression evaluated per row with the fields
id, first_name, last_name, grad_year, active, year_checkins and
build_checkins:

  attend summary --filter 'year_checkins >= 10 && grad_year == 2027'`,
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

			w := cmd.OutOrStdout()
			if opts.Output != "" {
				file, err := os.Create(opts.Output)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to create output file", err)
				}
				defer file.Close()
				w = file
			}

			err = report.WriteSummary(cmd.Context(), db, report.Options{
				YearStart:       year,
				BuildStart:      build,
				Filter:          opts.Filter,
				IncludeInactive: opts.All,
			}, w)
			if err != nil {
				return WrapExitError(ExitFailure, "summary failed", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "boolean row filter expression")
	cmd.Flags().BoolVar(&opts.All, "all", false, "include deactivated students")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: stdout)")

	return cmd
}
