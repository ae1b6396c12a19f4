package store

import (
	"context"
	"fmt"

	"github.com/frcattend/attend/internal/model"
)

const checkinColumns = `checkin_id, student_id, event_type, timestamp, inactive, event_date`

// AddCheckin persists one checkin and returns its generated id.
// A zero id with a non-nil error means the store rejected the write; callers
// must surface that distinctly from an application-level duplicate, which is
// decided by the intake loop before any write is attempted.
func (s *Store) AddCheckin(ctx context.Context, c model.Checkin) (int64, error) {
	if c.StudentID == "" {
		return 0, fmt.Errorf("add checkin: student id is required")
	}
	if !c.EventType.Valid() {
		return 0, fmt.Errorf("add checkin: invalid event type %q", c.EventType)
	}
	if c.Timestamp.IsZero() {
		return 0, fmt.Errorf("add checkin: timestamp is required")
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO checkins (student_id, event_type, timestamp, inactive)
		VALUES (?, ?, ?, ?)
	`, c.StudentID, c.EventType, c.Timestamp, c.Inactive)
	if err != nil {
		return 0, fmt.Errorf("add checkin: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("add checkin: %w", err)
	}
	return id, nil
}

// CheckedInStudents returns the ids of every student with a checkin for the
// given (date, type) key. This is the exact set used to seed a new intake
// session's dedup state, which is what makes stopping and restarting
// scanning mid-event safe.
func (s *Store) CheckedInStudents(ctx context.Context, date model.Date, t model.EventType) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, `
		SELECT DISTINCT student_id
		  FROM checkins
		 WHERE event_date = ? AND event_type = ?
		 ORDER BY student_id
	`, date, t)
	if err != nil {
		return nil, fmt.Errorf("checked-in students: %w", err)
	}
	return ids, nil
}

// CheckinCount returns the number of checkins for an event key.
func (s *Store) CheckinCount(ctx context.Context, date model.Date, t model.EventType) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM checkins WHERE event_date = ? AND event_type = ?`, date, t)
	if err != nil {
		return 0, fmt.Errorf("checkin count: %w", err)
	}
	return n, nil
}

// CheckinsByStudentAndDate returns a student's checkins on one calendar day.
func (s *Store) CheckinsByStudentAndDate(ctx context.Context, studentID string, date model.Date) ([]model.Checkin, error) {
	var checkins []model.Checkin
	err := s.db.SelectContext(ctx, &checkins, `
		SELECT `+checkinColumns+`
		  FROM checkins
		 WHERE student_id = ? AND event_date = ?
		 ORDER BY timestamp
	`, studentID, date)
	if err != nil {
		return nil, fmt.Errorf("checkins by student and date: %w", err)
	}
	return checkins, nil
}

// ListCheckins returns every checkin, oldest first.
func (s *Store) ListCheckins(ctx context.Context) ([]model.Checkin, error) {
	var checkins []model.Checkin
	err := s.db.SelectContext(ctx, &checkins,
		`SELECT `+checkinColumns+` FROM checkins ORDER BY timestamp, checkin_id`)
	if err != nil {
		return nil, fmt.Errorf("list checkins: %w", err)
	}
	return checkins, nil
}
