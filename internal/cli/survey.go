package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/frcattend/attend/internal/model"
)

// SurveyOptions holds flags for the survey subcommands.
type SurveyOptions struct {
	*RootOptions
	Question    string
	Choices     []string
	Multiselect bool
	Freetext    bool
	MaxLength   int
	Replace     bool
}

// NewSurveyCommand creates the survey command group.
func NewSurveyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "survey",
		Short: "Manage checkin surveys",
	}
	cmd.AddCommand(newSurveyAddCommand(rootOpts))
	cmd.AddCommand(newSurveyListCommand(rootOpts))
	cmd.AddCommand(newSurveyDeleteCommand(rootOpts))
	return cmd
}

func newSurveyAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SurveyOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a survey",
		Long: `Add a survey to present at checkin time.

With --replace, a student's newest answer overwrites older ones; without it,
one answer is retained per date. Same-day resubmission always overwrites.

Example:
  attend survey add Subgroup --question "Which subgroup are you in?" \
      --choice Mechanical --choice Software --replace`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			sv := model.Survey{
				Title:         args[0],
				Question:      opts.Question,
				Choices:       model.ChoiceList(opts.Choices),
				Multiselect:   opts.Multiselect,
				AllowFreetext: opts.Freetext,
				Replace:       opts.Replace,
			}
			if cmd.Flags().Changed("max-length") {
				sv.MaxLength = &opts.MaxLength
			}
			if err := db.AddSurvey(cmd.Context(), sv); err != nil {
				return WrapExitError(ExitFailure, "failed to add survey", err)
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(fmt.Sprintf("Added survey %q", sv.Title))
		},
	}
	cmd.Flags().StringVar(&opts.Question, "question", "", "question text")
	cmd.Flags().StringArrayVar(&opts.Choices, "choice", nil, "answer choice (repeatable)")
	cmd.Flags().BoolVar(&opts.Multiselect, "multiselect", false, "allow selecting multiple choices")
	cmd.Flags().BoolVar(&opts.Freetext, "freetext", false, "allow a free-text answer")
	cmd.Flags().IntVar(&opts.MaxLength, "max-length", 0, "maximum free-text length")
	cmd.Flags().BoolVar(&opts.Replace, "replace", false, "newest answer overwrites older ones")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}

func newSurveyListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List surveys",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			surveys, err := db.ListSurveys(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list surveys", err)
			}

			if rootOpts.Format == "json" {
				f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return f.Success(surveys)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TITLE\tQUESTION\tCHOICES\tREPLACE")
			for _, sv := range surveys {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n",
					sv.Title, sv.Question, strings.Join(sv.Choices, ", "), sv.Replace)
			}
			return w.Flush()
		},
	}
}

func newSurveyDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <title>",
		Short:         "Delete a survey",
		Long:          "Delete a survey. Collected answers are retained under the old title.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.DeleteSurvey(cmd.Context(), args[0]); err != nil {
				return WrapExitError(ExitFailure, "failed to delete survey", err)
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(fmt.Sprintf("Deleted survey %q", args[0]))
		},
	}
}
