// Package report renders attendance summaries as Markdown.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/frcattend/attend/internal/model"
	"github.com/frcattend/attend/internal/store"
)

// Options controls what the summary includes.
type Options struct {
	// YearStart and BuildStart bound the two totals columns.
	YearStart  model.Date
	BuildStart model.Date

	// Filter is an optional boolean expression evaluated per student row.
	// Available fields: id, first_name, last_name, grad_year, active,
	// year_checkins, build_checkins. Example:
	//
	//	year_checkins >= 10 && grad_year == 2027
	Filter string

	// IncludeInactive keeps deactivated students in the table.
	IncludeInactive bool
}

// rowEnv is the expression environment for one attendance row.
func rowEnv(r store.AttendanceRow) map[string]any {
	return map[string]any{
		"id":             r.ID,
		"first_name":     r.FirstName,
		"last_name":      r.LastName,
		"grad_year":      r.GradYear,
		"active":         r.Active(),
		"year_checkins":  r.YearCheckins,
		"build_checkins": r.BuildCheckins,
	}
}

// compileFilter compiles the filter against a representative environment.
func compileFilter(filter string) (*vm.Program, error) {
	program, err := expr.Compile(filter,
		expr.Env(rowEnv(store.AttendanceRow{})),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}
	return program, nil
}

// WriteSummary renders the attendance summary as Markdown.
func WriteSummary(ctx context.Context, db *store.Store, opts Options, w io.Writer) error {
	if opts.YearStart.IsZero() || opts.BuildStart.IsZero() {
		return errors.New("summary: season boundaries are required")
	}

	var program *vm.Program
	if opts.Filter != "" {
		p, err := compileFilter(opts.Filter)
		if err != nil {
			return err
		}
		program = p
	}

	rows, err := db.AttendanceTotals(ctx, opts.YearStart, opts.BuildStart, opts.IncludeInactive)
	if err != nil {
		return err
	}

	events, err := db.ListEvents(ctx)
	if err != nil {
		return err
	}
	checkins, err := db.ListCheckins(ctx)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("# Attendance Summary\n\n")
	fmt.Fprintf(&b, "Database: `%s`\n\n", db.Path())
	fmt.Fprintf(&b, "- Events recorded: %d\n", len(events))
	fmt.Fprintf(&b, "- Checkins recorded: %d\n", len(checkins))
	fmt.Fprintf(&b, "- School year from: %s\n", opts.YearStart)
	fmt.Fprintf(&b, "- Build season from: %s\n\n", opts.BuildStart)
	if opts.Filter != "" {
		fmt.Fprintf(&b, "Filter: `%s`\n\n", opts.Filter)
	}

	b.WriteString("| Last Name | First Name | Grad | Year | Build | Last Seen |\n")
	b.WriteString("|-----------|------------|------|------|-------|-----------|\n")

	matched := 0
	for _, r := range rows {
		if program != nil {
			keep, err := expr.Run(program, rowEnv(r))
			if err != nil {
				return fmt.Errorf("evaluate filter for %s: %w", r.ID, err)
			}
			if !keep.(bool) {
				continue
			}
		}
		matched++
		lastSeen := "never"
		if r.LastCheckin != nil {
			lastSeen = r.LastCheckin.String()
		}
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %s |\n",
			r.LastName, r.FirstName, r.GradYear, r.YearCheckins, r.BuildCheckins, lastSeen)
	}

	fmt.Fprintf(&b, "\n%d of %d students shown.\n", matched, len(rows))

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
