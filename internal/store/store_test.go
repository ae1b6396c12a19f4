package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frcattend/attend/internal/model"
)

// newTestStore creates a store backed by a fresh database file.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "attend.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func addStudent(t *testing.T, s *Store, id, first, last string) {
	t.Helper()
	require.NoError(t, s.AddStudent(context.Background(), model.Student{
		ID:        id,
		FirstName: first,
		LastName:  last,
		GradYear:  2028,
	}))
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attend.db")

	s1, err := Open(path)
	require.NoError(t, err)
	addStudent(t, s1, "1001", "Ada", "Lovelace")
	require.NoError(t, s1.Close())

	// Reopening applies the schema again without clobbering data.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	st, err := s2.GetStudent(context.Background(), "1001")
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", st.LastName)
}

func TestOpenExisting_MissingFile(t *testing.T) {
	_, err := OpenExisting(filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err, "a session must never silently create an empty database")
}

func TestStore_SchemaVersion(t *testing.T) {
	s := newTestStore(t)

	var version int
	require.NoError(t, s.db.Get(&version, "PRAGMA user_version"))
	assert.Equal(t, currentSchemaVersion, version)
}
