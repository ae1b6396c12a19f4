package store

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/frcattend/attend/internal/model"
)

const studentColumns = `student_id, first_name, last_name, grad_year, email, deactivated_on`

// AddStudent inserts a new student record.
// Returns ErrDuplicate if the student id is already registered.
func (s *Store) AddStudent(ctx context.Context, st model.Student) error {
	if err := st.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO students (student_id, first_name, last_name, grad_year, email, deactivated_on)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(student_id) DO NOTHING
	`, st.ID, st.FirstName, st.LastName, st.GradYear, st.Email, st.DeactivatedOn)
	if err != nil {
		return fmt.Errorf("add student: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("add student: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("add student %s: %w", st.ID, ErrDuplicate)
	}
	return nil
}

// UpdateStudent rewrites the mutable fields of an existing student.
func (s *Store) UpdateStudent(ctx context.Context, st model.Student) error {
	if err := st.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE students
		   SET first_name = ?, last_name = ?, grad_year = ?, email = ?
		 WHERE student_id = ?
	`, st.FirstName, st.LastName, st.GradYear, st.Email, st.ID)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update student %s: %w", st.ID, ErrNotFound)
	}
	return nil
}

// GetStudent returns the student with the given id, or ErrNotFound.
func (s *Store) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	var st model.Student
	err := s.db.GetContext(ctx, &st,
		`SELECT `+studentColumns+` FROM students WHERE student_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get student %s: %w", id, notFound(err))
	}
	return &st, nil
}

// SetDeactivated marks a student deactivated on the given date, or
// reactivates when on is nil. Deactivation does not delete history.
func (s *Store) SetDeactivated(ctx context.Context, id string, on *model.Date) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE students SET deactivated_on = ? WHERE student_id = ?`, on, id)
	if err != nil {
		return fmt.Errorf("set deactivated: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set deactivated: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("set deactivated %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListStudents returns students ordered by last name then first name using
// locale-aware collation, which SQLite's byte ordering cannot provide.
func (s *Store) ListStudents(ctx context.Context, includeInactive bool) ([]model.Student, error) {
	table := "active_students"
	if includeInactive {
		table = "students"
	}
	var students []model.Student
	err := s.db.SelectContext(ctx, &students, `SELECT `+studentColumns+` FROM `+table)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	coll := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(students, func(i, j int) bool {
		if c := coll.CompareString(students[i].LastName, students[j].LastName); c != 0 {
			return c < 0
		}
		return coll.CompareString(students[i].FirstName, students[j].FirstName) < 0
	})
	return students, nil
}

// Roster returns every student (active and deactivated) keyed by id.
// This is the snapshot an intake session resolves scanned codes against.
func (s *Store) Roster(ctx context.Context) (map[string]model.Student, error) {
	students, err := s.ListStudents(ctx, true)
	if err != nil {
		return nil, err
	}
	roster := make(map[string]model.Student, len(students))
	for _, st := range students {
		roster[st.ID] = st
	}
	return roster, nil
}

// StudentIDs returns the ids of all (or only active) students.
func (s *Store) StudentIDs(ctx context.Context, includeInactive bool) ([]string, error) {
	table := "active_students"
	if includeInactive {
		table = "students"
	}
	var ids []string
	err := s.db.SelectContext(ctx, &ids,
		`SELECT student_id FROM `+table+` ORDER BY student_id`)
	if err != nil {
		return nil, fmt.Errorf("student ids: %w", err)
	}
	return ids, nil
}
