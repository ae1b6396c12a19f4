package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/frcattend/attend/internal/gate"
	"github.com/frcattend/attend/internal/intake"
	"github.com/frcattend/attend/internal/model"
	"github.com/frcattend/attend/internal/store"
)

// ScanOptions holds flags for the scan command.
type ScanOptions struct {
	*RootOptions
	Survey   string
	NoSurvey bool

	// Source overrides the badge source (for testing). Defaults to a
	// line-oriented reader over stdin.
	Source intake.DecodeSource

	// Interactive overrides the prompt stream (for testing). Defaults to
	// the controlling terminal, falling back to stdin.
	Interactive io.ReadWriter
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scan <event-type>",
		Short: "Run a badge-scanning session",
		Long: `Run an intake session for today's event of the given type, reading
badge codes line by line from stdin (USB badge scanners present as
keyboards). Each accepted scan is persisted immediately; repeats within the
debounce window are ignored, and a second scan of the same badge for the
same event reports a duplicate.

Ctrl-C requests exit; if a password hash is configured, leaving scan mode
requires the password.

Example:
  attend scan meeting
  attend scan build --survey Subgroup`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Survey, "survey", "", "survey title to present at checkin (overrides config)")
	cmd.Flags().BoolVar(&opts.NoSurvey, "no-survey", false, "skip the configured survey")

	return cmd
}

func runScan(cmd *cobra.Command, opts *ScanOptions, eventArg string) error {
	eventType, err := model.ParseEventType(eventArg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid event type", err)
	}

	db, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	cfg := opts.Config()
	survey, err := resolveSurvey(cmd.Context(), db, opts)
	if err != nil {
		return err
	}

	source := opts.Source
	if source == nil {
		source = intake.NewReaderSource(cmd.InOrStdin())
	}

	// The password and survey prompts read from the terminal, not from the
	// badge stream: a keyboard-wedge scanner types into stdin.
	prompt := opts.Interactive
	if prompt == nil {
		tty, closeTTY := openTerminal(cmd)
		defer closeTTY()
		prompt = tty
	}

	out := cmd.OutOrStdout()
	sess, err := intake.NewSession(intake.Config{
		Registry:       db,
		Source:         source,
		SurveyGate:     gate.NewSurveyPrompt(db, prompt, prompt),
		ExitGate:       gate.NewPasswordGate(cfg.Scan.PasswordHash, prompt, prompt),
		DebounceWindow: cfg.Scan.DebounceWindow(),
		Outcomes: func(o intake.Outcome) {
			fmt.Fprintln(out, formatOutcome(o))
		},
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create session", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := sess.Start(ctx, eventType, survey); err != nil {
		return WrapExitError(ExitCommandError, "failed to start session", err)
	}

	// First Ctrl-C asks to leave scan mode (through the password gate);
	// a second one shuts the session down unconditionally.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			sess.RequestExit()
		case <-ctx.Done():
			return
		}
		select {
		case <-sigChan:
			slog.Info("second interrupt, forcing shutdown")
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Fprintf(out, "Scanning for %s on %s. Scan a badge, Ctrl-C to exit.\n",
		eventType, sess.Event().Date)

	if err := sess.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "session error", err)
	}
	fmt.Fprintln(out, "Session closed.")
	return nil
}

// resolveSurvey picks the survey for this session: --survey beats config,
// --no-survey beats both. A configured title that matches no stored survey
// is a configuration error, not a silent no-op.
func resolveSurvey(ctx context.Context, db *store.Store, opts *ScanOptions) (*model.Survey, error) {
	if opts.NoSurvey {
		return nil, nil
	}
	title := opts.Survey
	if title == "" {
		title = opts.Config().Scan.Survey
	}
	if title == "" {
		return nil, nil
	}
	survey, err := db.GetSurvey(ctx, title)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("survey %q not found", title), err)
	}
	return survey, nil
}

// openTerminal returns the controlling terminal for prompts plus its close
// hook, falling back to the command's stdin/stdout when no terminal is
// available (tests, CI).
func openTerminal(cmd *cobra.Command) (io.ReadWriter, func()) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return &promptStream{r: cmd.InOrStdin(), w: cmd.OutOrStdout()}, func() {}
	}
	return tty, func() { tty.Close() }
}

type promptStream struct {
	r io.Reader
	w io.Writer
}

func (p *promptStream) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *promptStream) Write(b []byte) (int, error) { return p.w.Write(b) }

// formatOutcome renders one scan decision as a console line.
func formatOutcome(o intake.Outcome) string {
	name := o.Code
	if o.Student != nil {
		name = fmt.Sprintf("%s (%s)", o.Student.FullName(), o.Student.ID)
	}
	switch o.Kind {
	case intake.OutcomeSuccess:
		return fmt.Sprintf("OK        %s", name)
	case intake.OutcomeDuplicate:
		return fmt.Sprintf("DUPLICATE %s already checked in", name)
	case intake.OutcomeUnknown:
		return fmt.Sprintf("UNKNOWN   badge %q matches no student", o.Code)
	case intake.OutcomeWarning:
		return fmt.Sprintf("WARNING   %s is deactivated; checkin flagged", name)
	case intake.OutcomeFailure:
		return fmt.Sprintf("FAILED    %s: %v (rescan to retry)", name, o.Err)
	default:
		return fmt.Sprintf("%-9s %s", string(o.Kind), name)
	}
}
