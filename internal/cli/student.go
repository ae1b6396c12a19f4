package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/frcattend/attend/internal/model"
)

func nowDate() (int, time.Month, int) { return time.Now().Date() }

// StudentOptions holds flags for the student subcommands.
type StudentOptions struct {
	*RootOptions
	FirstName string
	LastName  string
	GradYear  int
	Email     string
	All       bool
	On        string
}

// NewStudentCommand creates the student command group.
func NewStudentCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "student",
		Short: "Manage the roster",
	}
	cmd.AddCommand(newStudentAddCommand(rootOpts))
	cmd.AddCommand(newStudentUpdateCommand(rootOpts))
	cmd.AddCommand(newStudentListCommand(rootOpts))
	cmd.AddCommand(newStudentDeactivateCommand(rootOpts))
	cmd.AddCommand(newStudentReactivateCommand(rootOpts))
	return cmd
}

func studentFlags(cmd *cobra.Command, opts *StudentOptions) {
	cmd.Flags().StringVar(&opts.FirstName, "first", "", "first name")
	cmd.Flags().StringVar(&opts.LastName, "last", "", "last name")
	cmd.Flags().IntVar(&opts.GradYear, "grad", 0, "graduation year")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
}

func newStudentAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StudentOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:           "add <id>",
		Short:         "Add a student to the roster",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			st := model.Student{
				ID:        args[0],
				FirstName: opts.FirstName,
				LastName:  opts.LastName,
				GradYear:  opts.GradYear,
				Email:     opts.Email,
			}
			if err := db.AddStudent(cmd.Context(), st); err != nil {
				return WrapExitError(ExitFailure, "failed to add student", err)
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(fmt.Sprintf("Added %s (%s)", st.FullName(), st.ID))
		},
	}
	studentFlags(cmd, opts)
	_ = cmd.MarkFlagRequired("first")
	_ = cmd.MarkFlagRequired("last")
	_ = cmd.MarkFlagRequired("grad")
	return cmd
}

func newStudentUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StudentOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:           "update <id>",
		Short:         "Update a student's details",
		Long:          "Update a student's details. Flags left unset keep their stored value.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			st, err := db.GetStudent(ctx, args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "student not found", err)
			}
			if cmd.Flags().Changed("first") {
				st.FirstName = opts.FirstName
			}
			if cmd.Flags().Changed("last") {
				st.LastName = opts.LastName
			}
			if cmd.Flags().Changed("grad") {
				st.GradYear = opts.GradYear
			}
			if cmd.Flags().Changed("email") {
				st.Email = opts.Email
			}
			if err := db.UpdateStudent(ctx, *st); err != nil {
				return WrapExitError(ExitFailure, "failed to update student", err)
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(fmt.Sprintf("Updated %s (%s)", st.FullName(), st.ID))
		},
	}
	studentFlags(cmd, opts)
	return cmd
}

func newStudentListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StudentOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List the roster",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			students, err := db.ListStudents(cmd.Context(), opts.All)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list students", err)
			}

			if rootOpts.Format == "json" {
				f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return f.Success(students)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLAST\tFIRST\tGRAD\tSTATUS")
			for _, st := range students {
				status := "active"
				if !st.Active() {
					status = fmt.Sprintf("deactivated %s", st.DeactivatedOn)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					st.ID, st.LastName, st.FirstName, st.GradYear, status)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&opts.All, "all", false, "include deactivated students")
	return cmd
}

func newStudentDeactivateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StudentOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:           "deactivate <id>",
		Short:         "Deactivate a student",
		Long:          "Deactivate a student. The record and its checkin history are retained.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			on := model.NewDate(nowDate())
			if opts.On != "" {
				on, err = model.ParseDate(opts.On)
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid date", err)
				}
			}
			if err := db.SetDeactivated(cmd.Context(), args[0], &on); err != nil {
				return WrapExitError(ExitFailure, "failed to deactivate student", err)
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(fmt.Sprintf("Deactivated %s as of %s", args[0], on))
		},
	}
	cmd.Flags().StringVar(&opts.On, "on", "", "deactivation date (default: today)")
	return cmd
}

func newStudentReactivateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "reactivate <id>",
		Short:         "Reactivate a deactivated student",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.SetDeactivated(cmd.Context(), args[0], nil); err != nil {
				return WrapExitError(ExitFailure, "failed to reactivate student", err)
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(fmt.Sprintf("Reactivated %s", args[0]))
		},
	}
}
