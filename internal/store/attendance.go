package store

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/frcattend/attend/internal/model"
)

// AttendanceRow is a student record joined with checkin totals for the
// current season.
type AttendanceRow struct {
	model.Student
	YearCheckins  int         `db:"year_checkins"`
	BuildCheckins int         `db:"build_checkins"`
	LastCheckin   *model.Date `db:"last_checkin"`
}

// AttendanceTotals joins students and checkins: per-student counts since the
// start of the school year and of the build season, plus the most recent
// checkin date.
func (s *Store) AttendanceTotals(ctx context.Context, yearStart, buildStart model.Date, includeInactive bool) ([]AttendanceRow, error) {
	table := "students"
	if !includeInactive {
		table = "active_students"
	}
	var rows []AttendanceRow
	err := s.db.SelectContext(ctx, &rows, `
		WITH year_checkins AS (
		    SELECT student_id, COUNT(student_id) AS checkins,
		           MAX(event_date) AS last_checkin
		      FROM checkins
		     WHERE timestamp >= ?
		  GROUP BY student_id
		),
		build_checkins AS (
		    SELECT student_id, COUNT(student_id) AS checkins
		      FROM checkins
		     WHERE timestamp >= ?
		  GROUP BY student_id
		)
		SELECT s.student_id, s.first_name, s.last_name, s.grad_year,
		       s.email, s.deactivated_on,
		       COALESCE(y.checkins, 0) AS year_checkins,
		       COALESCE(b.checkins, 0) AS build_checkins,
		       y.last_checkin AS last_checkin
		  FROM `+table+` AS s
	     LEFT JOIN year_checkins AS y ON y.student_id = s.student_id
	     LEFT JOIN build_checkins AS b ON b.student_id = s.student_id
	`, yearStart, buildStart)
	if err != nil {
		return nil, fmt.Errorf("attendance totals: %w", err)
	}

	coll := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(rows, func(i, j int) bool {
		if c := coll.CompareString(rows[i].LastName, rows[j].LastName); c != 0 {
			return c < 0
		}
		return coll.CompareString(rows[i].FirstName, rows[j].FirstName) < 0
	})
	return rows, nil
}
