package store

import (
	"context"
	"fmt"

	"github.com/frcattend/attend/internal/model"
)

const surveyColumns = `title, question, choices, multiselect, allow_freetext, max_length, "replace"`

// AddSurvey inserts a new survey. Returns ErrDuplicate if the title is taken.
func (s *Store) AddSurvey(ctx context.Context, sv model.Survey) error {
	if err := sv.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO surveys (title, question, choices, multiselect, allow_freetext, max_length, "replace")
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(title) DO NOTHING
	`, sv.Title, sv.Question, sv.Choices, sv.Multiselect, sv.AllowFreetext, sv.MaxLength, sv.Replace)
	if err != nil {
		return fmt.Errorf("add survey: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("add survey: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("add survey %q: %w", sv.Title, ErrDuplicate)
	}
	return nil
}

// UpdateSurvey rewrites an existing survey's fields, keyed by title.
func (s *Store) UpdateSurvey(ctx context.Context, sv model.Survey) error {
	if err := sv.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE surveys
		   SET question = ?, choices = ?, multiselect = ?,
		       allow_freetext = ?, max_length = ?, "replace" = ?
		 WHERE title = ?
	`, sv.Question, sv.Choices, sv.Multiselect, sv.AllowFreetext, sv.MaxLength, sv.Replace, sv.Title)
	if err != nil {
		return fmt.Errorf("update survey: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update survey: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update survey %q: %w", sv.Title, ErrNotFound)
	}
	return nil
}

// DeleteSurvey removes a survey by title. Its answers are retained; the
// survey reference in answers is a soft key by design.
func (s *Store) DeleteSurvey(ctx context.Context, title string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM surveys WHERE title = ?`, title)
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete survey %q: %w", title, ErrNotFound)
	}
	return nil
}

// GetSurvey returns the survey with the given title, or ErrNotFound.
func (s *Store) GetSurvey(ctx context.Context, title string) (*model.Survey, error) {
	var sv model.Survey
	err := s.db.GetContext(ctx, &sv,
		`SELECT `+surveyColumns+` FROM surveys WHERE title = ?`, title)
	if err != nil {
		return nil, fmt.Errorf("get survey %q: %w", title, notFound(err))
	}
	return &sv, nil
}

// ListSurveys returns all surveys ordered by title.
func (s *Store) ListSurveys(ctx context.Context) ([]model.Survey, error) {
	var surveys []model.Survey
	err := s.db.SelectContext(ctx, &surveys,
		`SELECT `+surveyColumns+` FROM surveys ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	return surveys, nil
}

// AddAnswer records one student's answer to one survey.
//
// Semantics, in priority order:
//  1. A prior answer dated the same day is overwritten unconditionally
//     (the table's primary key conflict clause replaces the row), so a
//     student can correct a mistake regardless of the replace policy.
//  2. With replace true, the single most recent prior row is overwritten in
//     place, discarding its date: only the latest answer matters.
//  3. With replace false a new row is inserted, retaining one answer per
//     date for surveys retaken each season.
func (s *Store) AddAnswer(ctx context.Context, a model.Answer, replace bool) error {
	if a.StudentID == "" || a.SurveyTitle == "" {
		return fmt.Errorf("add answer: student id and survey title are required")
	}
	if a.Date.IsZero() {
		a.Date = model.Today()
	}

	prior, err := s.AnswersFor(ctx, a.SurveyTitle, a.StudentID)
	if err != nil {
		return err
	}
	sameDay := false
	for _, p := range prior {
		if p.Date.Equal(a.Date) {
			sameDay = true
			break
		}
	}

	if len(prior) == 0 || sameDay || !replace {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO answers (student_id, survey_title, answer_date, choices, freetext_answer)
			VALUES (?, ?, ?, ?, ?)
		`, a.StudentID, a.SurveyTitle, a.Date, a.Choices, a.Freetext)
		if err != nil {
			return fmt.Errorf("add answer: %w", err)
		}
		return nil
	}

	// Replace policy: overwrite the most recent prior row in place.
	_, err = s.db.ExecContext(ctx, `
		UPDATE answers
		   SET answer_date = ?, choices = ?, freetext_answer = ?
		 WHERE survey_title = ? AND student_id = ? AND answer_date = ?
	`, a.Date, a.Choices, a.Freetext, a.SurveyTitle, a.StudentID, prior[0].Date)
	if err != nil {
		return fmt.Errorf("replace answer: %w", err)
	}
	return nil
}

// AnswersFor returns all answers for one survey and student, newest first.
func (s *Store) AnswersFor(ctx context.Context, surveyTitle, studentID string) ([]model.Answer, error) {
	var answers []model.Answer
	err := s.db.SelectContext(ctx, &answers, `
		SELECT student_id, survey_title, answer_date, choices, freetext_answer
		  FROM answers
		 WHERE survey_title = ? AND student_id = ?
		 ORDER BY answer_date DESC
	`, surveyTitle, studentID)
	if err != nil {
		return nil, fmt.Errorf("answers for %q/%s: %w", surveyTitle, studentID, err)
	}
	return answers, nil
}

// ListAnswers returns every answer, grouped by survey then student.
func (s *Store) ListAnswers(ctx context.Context) ([]model.Answer, error) {
	var answers []model.Answer
	err := s.db.SelectContext(ctx, &answers, `
		SELECT student_id, survey_title, answer_date, choices, freetext_answer
		  FROM answers
		 ORDER BY survey_title, student_id, answer_date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return answers, nil
}
