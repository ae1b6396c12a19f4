package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frcattend/attend/internal/model"
)

func TestAddStudent_Duplicate(t *testing.T) {
	s := newTestStore(t)
	addStudent(t, s, "1001", "Ada", "Lovelace")

	err := s.AddStudent(context.Background(), model.Student{
		ID: "1001", FirstName: "Someone", LastName: "Else", GradYear: 2029,
	})
	require.ErrorIs(t, err, ErrDuplicate)

	// The original record is untouched.
	st, err := s.GetStudent(context.Background(), "1001")
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", st.LastName)
}

func TestUpdateStudent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addStudent(t, s, "1001", "Ada", "Lovelace")

	require.NoError(t, s.UpdateStudent(ctx, model.Student{
		ID: "1001", FirstName: "Ada", LastName: "King", GradYear: 2028,
		Email: "ada@example.org",
	}))

	st, err := s.GetStudent(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, "King", st.LastName)
	assert.Equal(t, "ada@example.org", st.Email)

	err = s.UpdateStudent(ctx, model.Student{ID: "missing", LastName: "X", GradYear: 2028})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetDeactivated_AndReactivate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addStudent(t, s, "1001", "Ada", "Lovelace")

	d := model.MustDate("2026-11-01")
	require.NoError(t, s.SetDeactivated(ctx, "1001", &d))

	st, err := s.GetStudent(ctx, "1001")
	require.NoError(t, err)
	require.NotNil(t, st.DeactivatedOn)
	assert.False(t, st.Active())

	// Deactivated students disappear from the active listing but stay in
	// the roster, so a scan is flagged rather than rejected.
	active, err := s.ListStudents(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)
	roster, err := s.Roster(ctx)
	require.NoError(t, err)
	assert.Contains(t, roster, "1001")

	require.NoError(t, s.SetDeactivated(ctx, "1001", nil))
	st, err = s.GetStudent(ctx, "1001")
	require.NoError(t, err)
	assert.True(t, st.Active())

	assert.ErrorIs(t, s.SetDeactivated(ctx, "missing", nil), ErrNotFound)
}

func TestListStudents_CollatedOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, st := range []model.Student{
		{ID: "1", FirstName: "Zoe", LastName: "ortiz", GradYear: 2028},
		{ID: "2", FirstName: "Ana", LastName: "Álvarez", GradYear: 2028},
		{ID: "3", FirstName: "Ben", LastName: "Ortiz", GradYear: 2028},
		{ID: "4", FirstName: "Ada", LastName: "ortiz", GradYear: 2028},
	} {
		require.NoError(t, s.AddStudent(ctx, st))
	}

	students, err := s.ListStudents(ctx, true)
	require.NoError(t, err)
	require.Len(t, students, 4)

	// Case- and accent-aware: Álvarez sorts with A, and "ortiz"/"Ortiz"
	// interleave by first name instead of splitting on case.
	assert.Equal(t, "2", students[0].ID)
	assert.Equal(t, "4", students[1].ID)
	assert.Equal(t, "3", students[2].ID)
	assert.Equal(t, "1", students[3].ID)
}

func TestStudentIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addStudent(t, s, "B2", "Alan", "Turing")
	addStudent(t, s, "A1", "Ada", "Lovelace")

	d := model.MustDate("2026-11-01")
	require.NoError(t, s.SetDeactivated(ctx, "B2", &d))

	all, err := s.StudentIDs(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B2"}, all)

	active, err := s.StudentIDs(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, active)
}
