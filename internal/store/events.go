package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/frcattend/attend/internal/model"
)

// This file is the checkin registry: the consistency rules over the events
// and checkins tables. Uniqueness of (event_date, event_type) is enforced
// here; at-most-one checkin per student per event is enforced by the intake
// loop's dedup set, seeded from CheckedInStudents, so a constraint violation
// can degrade to a logged duplicate instead of a crash.

const eventColumns = `event_id, event_date, event_type, description`

// AddEvent inserts an event for its (date, type) key.
// Re-adding an existing key is a no-op: the table gains no row and
// ErrDuplicate is returned so callers can treat it as a failure indicator
// rather than an exception.
func (s *Store) AddEvent(ctx context.Context, ev model.Event) (int64, error) {
	if !ev.Type.Valid() {
		return 0, fmt.Errorf("add event: invalid event type %q", ev.Type)
	}
	if ev.Date.IsZero() {
		return 0, fmt.Errorf("add event: date is required")
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events (event_date, event_type, description)
		VALUES (?, ?, ?)
		ON CONFLICT(event_date, event_type) DO NOTHING
	`, ev.Date, ev.Type, ev.Description)
	if err != nil {
		return 0, fmt.Errorf("add event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("add event: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("add event %s: %w", ev.Key(), ErrDuplicate)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("add event: %w", err)
	}
	return id, nil
}

// GetEvent returns the event with the given (date, type) key, or ErrNotFound.
func (s *Store) GetEvent(ctx context.Context, date model.Date, t model.EventType) (*model.Event, error) {
	var ev model.Event
	err := s.db.GetContext(ctx, &ev,
		`SELECT `+eventColumns+` FROM events WHERE event_date = ? AND event_type = ?`,
		date, t)
	if err != nil {
		return nil, fmt.Errorf("get event %s/%s: %w", date, t, notFound(err))
	}
	return &ev, nil
}

// EventExists reports whether an event with the given key is recorded.
func (s *Store) EventExists(ctx context.Context, date model.Date, t model.EventType) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM events WHERE event_date = ? AND event_type = ?`, date, t)
	if err != nil {
		return false, fmt.Errorf("event exists: %w", err)
	}
	return n > 0, nil
}

// ListEvents returns all events, newest first.
func (s *Store) ListEvents(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	err := s.db.SelectContext(ctx, &events,
		`SELECT `+eventColumns+` FROM events ORDER BY event_date DESC, event_type`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// UpdateEventDescription replaces the free-text description of an event.
func (s *Store) UpdateEventDescription(ctx context.Context, date model.Date, t model.EventType, desc string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET description = ? WHERE event_date = ? AND event_type = ?`,
		desc, date, t)
	if err != nil {
		return fmt.Errorf("update event description: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event description: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update event %s/%s: %w", date, t, ErrNotFound)
	}
	return nil
}

// UpdateEventDate moves an event to a new date, rewriting the timestamps of
// all its checkins so the derived event_date follows. Both changes happen in
// one transaction: they succeed together or not at all.
//
// Returns ErrConflict, before any mutation, if an event already exists at
// (newDate, type) or if any affected student already holds a checkin for the
// destination key.
func (s *Store) UpdateEventDate(ctx context.Context, ev model.Event, newDate model.Date) error {
	if newDate.IsZero() {
		return fmt.Errorf("update event date: new date is required")
	}
	if ev.Date.Equal(newDate) {
		return nil
	}
	return s.inTx(func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n,
			`SELECT COUNT(*) FROM events WHERE event_date = ? AND event_type = ?`,
			newDate, ev.Type); err != nil {
			return fmt.Errorf("update event date: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("event %s/%s already exists: %w", newDate, ev.Type, ErrConflict)
		}

		// Checkins for the destination key can exist without an events row
		// (e.g. after a bulk import); moving onto them could leave a student
		// with two checkins for one (date, type).
		if err := tx.GetContext(ctx, &n, `
			SELECT COUNT(*)
			  FROM checkins a
			  JOIN checkins b
			    ON a.student_id = b.student_id
			 WHERE a.event_date = ? AND a.event_type = ?
			   AND b.event_date = ? AND b.event_type = ?
		`, ev.Date, ev.Type, newDate, ev.Type); err != nil {
			return fmt.Errorf("update event date: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%d students already checked in for %s/%s: %w",
				n, newDate, ev.Type, ErrConflict)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE events SET event_date = ? WHERE event_date = ? AND event_type = ?`,
			newDate, ev.Date, ev.Type)
		if err != nil {
			return fmt.Errorf("update event date: %w", err)
		}
		moved, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update event date: %w", err)
		}
		if moved == 0 {
			return fmt.Errorf("update event %s: %w", ev.Key(), ErrNotFound)
		}

		// Keep the time of day, swap the date portion of the ISO timestamp.
		_, err = tx.ExecContext(ctx, `
			UPDATE checkins
			   SET timestamp = ? || substr(timestamp, 11)
			 WHERE event_date = ? AND event_type = ?
		`, newDate.String(), ev.Date, ev.Type)
		if err != nil {
			return fmt.Errorf("update checkin dates: %w", err)
		}
		return nil
	})
}

// UpdateEventType re-points an event and every matching checkin to a new
// event type, returning the number of checkins changed.
//
// Policy: reject-on-conflict. The update is refused with ErrConflict, before
// any mutation, when the destination (date, newType) event already exists or
// when any affected student already holds a checkin for the destination key.
// Applying it could otherwise leave a student with two checkins for the same
// (date, type). All-or-nothing: partial cascades are forbidden.
func (s *Store) UpdateEventType(ctx context.Context, ev model.Event, newType model.EventType) (int, error) {
	if !newType.Valid() {
		return 0, fmt.Errorf("update event type: invalid event type %q", newType)
	}
	if ev.Type == newType {
		return 0, nil
	}
	var changed int
	err := s.inTx(func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n,
			`SELECT COUNT(*) FROM events WHERE event_date = ? AND event_type = ?`,
			ev.Date, newType); err != nil {
			return fmt.Errorf("update event type: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("event %s/%s already exists: %w", ev.Date, newType, ErrConflict)
		}

		// Checkins for the destination key can exist without an events row
		// (e.g. after a bulk import); check for student overlap explicitly.
		if err := tx.GetContext(ctx, &n, `
			SELECT COUNT(*)
			  FROM checkins a
			  JOIN checkins b
			    ON a.student_id = b.student_id AND a.event_date = b.event_date
			 WHERE a.event_date = ? AND a.event_type = ? AND b.event_type = ?
		`, ev.Date, ev.Type, newType); err != nil {
			return fmt.Errorf("update event type: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%d students already checked in for %s/%s: %w",
				n, ev.Date, newType, ErrConflict)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE events SET event_type = ? WHERE event_date = ? AND event_type = ?`,
			newType, ev.Date, ev.Type)
		if err != nil {
			return fmt.Errorf("update event type: %w", err)
		}
		moved, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update event type: %w", err)
		}
		if moved == 0 {
			return fmt.Errorf("update event %s: %w", ev.Key(), ErrNotFound)
		}

		res, err = tx.ExecContext(ctx,
			`UPDATE checkins SET event_type = ? WHERE event_date = ? AND event_type = ?`,
			newType, ev.Date, ev.Type)
		if err != nil {
			return fmt.Errorf("update checkin types: %w", err)
		}
		repointed, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update checkin types: %w", err)
		}
		changed = int(repointed)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}
