package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/frcattend/attend/internal/model"
)

// Dump groups the five entity collections for backup and migration.
// This is the bulk interchange shape: Load writes it back without
// re-triggering intake invariants, because restore is a trusted path.
type Dump struct {
	Students []model.Student `json:"students"`
	Events   []model.Event   `json:"events"`
	Checkins []model.Checkin `json:"checkins"`
	Surveys  []model.Survey  `json:"surveys"`
	Answers  []model.Answer  `json:"answers"`
}

// Dump reads the entire database into a Dump.
func (s *Store) Dump(ctx context.Context) (*Dump, error) {
	students, err := s.ListStudents(ctx, true)
	if err != nil {
		return nil, err
	}
	events, err := s.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	checkins, err := s.ListCheckins(ctx)
	if err != nil {
		return nil, err
	}
	surveys, err := s.ListSurveys(ctx)
	if err != nil {
		return nil, err
	}
	answers, err := s.ListAnswers(ctx)
	if err != nil {
		return nil, err
	}
	return &Dump{
		Students: students,
		Events:   events,
		Checkins: checkins,
		Surveys:  surveys,
		Answers:  answers,
	}, nil
}

// Load bulk-inserts a dump into the database in one transaction.
// Dedup logic is bypassed by design; callers are expected to validate the
// dump before loading (see internal/export).
func (s *Store) Load(ctx context.Context, d *Dump) error {
	return s.inTx(func(tx *sqlx.Tx) error {
		for _, st := range d.Students {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO students (student_id, first_name, last_name, grad_year, email, deactivated_on)
				VALUES (?, ?, ?, ?, ?, ?)
			`, st.ID, st.FirstName, st.LastName, st.GradYear, st.Email, st.DeactivatedOn); err != nil {
				return fmt.Errorf("load student %s: %w", st.ID, err)
			}
		}
		for _, sv := range d.Surveys {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO surveys (title, question, choices, multiselect, allow_freetext, max_length, "replace")
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, sv.Title, sv.Question, sv.Choices, sv.Multiselect, sv.AllowFreetext, sv.MaxLength, sv.Replace); err != nil {
				return fmt.Errorf("load survey %q: %w", sv.Title, err)
			}
		}
		for _, ev := range d.Events {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO events (event_date, event_type, description)
				VALUES (?, ?, ?)
			`, ev.Date, ev.Type, ev.Description); err != nil {
				return fmt.Errorf("load event %s: %w", ev.Key(), err)
			}
		}
		for _, c := range d.Checkins {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO checkins (student_id, event_type, timestamp, inactive)
				VALUES (?, ?, ?, ?)
			`, c.StudentID, c.EventType, c.Timestamp, c.Inactive); err != nil {
				return fmt.Errorf("load checkin for %s: %w", c.StudentID, err)
			}
		}
		for _, a := range d.Answers {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO answers (student_id, survey_title, answer_date, choices, freetext_answer)
				VALUES (?, ?, ?, ?, ?)
			`, a.StudentID, a.SurveyTitle, a.Date, a.Choices, a.Freetext); err != nil {
				return fmt.Errorf("load answer for %s: %w", a.StudentID, err)
			}
		}
		return nil
	})
}
