package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/frcattend/attend/internal/model"
	"github.com/frcattend/attend/internal/store"
)

// NewEventCommand creates the event command group.
func NewEventCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Manage recorded events",
	}
	cmd.AddCommand(newEventListCommand(rootOpts))
	cmd.AddCommand(newEventSetDateCommand(rootOpts))
	cmd.AddCommand(newEventSetTypeCommand(rootOpts))
	cmd.AddCommand(newEventDescribeCommand(rootOpts))
	return cmd
}

// parseEventKey parses the "<date> <type>" argument pair used by every
// event subcommand.
func parseEventKey(dateArg, typeArg string) (model.Date, model.EventType, error) {
	date, err := model.ParseDate(dateArg)
	if err != nil {
		return model.Date{}, "", err
	}
	t, err := model.ParseEventType(typeArg)
	if err != nil {
		return model.Date{}, "", err
	}
	return date, t, nil
}

func newEventListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List recorded events with checkin counts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			events, err := db.ListEvents(ctx)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list events", err)
			}

			if rootOpts.Format == "json" {
				f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return f.Success(events)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tTYPE\tCHECKINS\tDESCRIPTION")
			for _, ev := range events {
				n, err := db.CheckinCount(ctx, ev.Date, ev.Type)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to count checkins", err)
				}
				desc := ""
				if ev.Description != nil {
					desc = *ev.Description
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", ev.Date, ev.Type, n, desc)
			}
			return w.Flush()
		},
	}
}

func newEventSetDateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-date <date> <type> <new-date>",
		Short: "Move an event and its checkins to another date",
		Long: `Move an event to another date. Checkin timestamps move with it in the
same transaction, so attendance history stays attached to the event. The
move is rejected if an event of the same type already exists on the target
date.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, t, err := parseEventKey(args[0], args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid event key", err)
			}
			newDate, err := model.ParseDate(args[2])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid target date", err)
			}

			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			ev, err := db.GetEvent(ctx, date, t)
			if err != nil {
				return WrapExitError(ExitFailure, "event not found", err)
			}
			if err := db.UpdateEventDate(ctx, *ev, newDate); err != nil {
				if errors.Is(err, store.ErrConflict) {
					return WrapExitError(ExitFailure, "target date already has this event", err)
				}
				return WrapExitError(ExitFailure, "failed to move event", err)
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(fmt.Sprintf("Moved %s %s to %s", t, date, newDate))
		},
	}
}

func newEventSetTypeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-type <date> <type> <new-type>",
		Short: "Change an event's type, repointing its checkins",
		Long: `Change an event's type. All checkins recorded against the old type on
that date are repointed to the new type. The change is rejected if an event
of the new type already exists on that date, or if any student would end up
checked in twice.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, t, err := parseEventKey(args[0], args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid event key", err)
			}
			newType, err := model.ParseEventType(args[2])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid target type", err)
			}

			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			ev, err := db.GetEvent(ctx, date, t)
			if err != nil {
				return WrapExitError(ExitFailure, "event not found", err)
			}
			moved, err := db.UpdateEventType(ctx, *ev, newType)
			if err != nil {
				if errors.Is(err, store.ErrConflict) {
					return WrapExitError(ExitFailure, "type change conflicts with existing checkins", err)
				}
				return WrapExitError(ExitFailure, "failed to change event type", err)
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(fmt.Sprintf("Changed %s %s to %s (%d checkins repointed)", date, t, newType, moved))
		},
	}
}

func newEventDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "describe <date> <type> <description>",
		Short:         "Set an event's description",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, t, err := parseEventKey(args[0], args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid event key", err)
			}

			db, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.UpdateEventDescription(cmd.Context(), date, t, args[2]); err != nil {
				return WrapExitError(ExitFailure, "failed to describe event", err)
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(fmt.Sprintf("Described %s %s", date, t))
		},
	}
}
