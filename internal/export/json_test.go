package export

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frcattend/attend/internal/model"
	"github.com/frcattend/attend/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "attend.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedStore(t *testing.T, db *store.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, db.AddStudent(ctx, model.Student{
		ID: "1001", FirstName: "Ada", LastName: "Lovelace", GradYear: 2027,
	}))
	_, err := db.AddEvent(ctx, model.Event{
		Date: model.MustDate("2027-01-01"), Type: model.EventMeeting,
	})
	require.NoError(t, err)
	_, err = db.AddCheckin(ctx, model.Checkin{
		StudentID: "1001",
		EventType: model.EventMeeting,
		Timestamp: model.MustDateTime("2027-01-01T17:30:00"),
	})
	require.NoError(t, err)
	require.NoError(t, db.AddSurvey(ctx, model.Survey{
		Title:    "Subgroup",
		Question: "Which subgroup are you in?",
		Choices:  model.ChoiceList{"Mechanical", "Software"},
		Replace:  true,
	}))
	require.NoError(t, db.AddAnswer(ctx, model.Answer{
		StudentID:   "1001",
		SurveyTitle: "Subgroup",
		Date:        model.MustDate("2027-01-01"),
		Choices:     model.ChoiceList{"Software"},
	}, true))
}

func TestJSON_RoundTrip(t *testing.T) {
	src := newTestStore(t)
	seedStore(t, src)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(ctx, src, &buf))

	// The export validates against its own schema.
	require.NoError(t, Validate(buf.Bytes()))

	dst := newTestStore(t)
	require.NoError(t, ImportJSON(ctx, dst, &buf))

	ids, err := dst.CheckedInStudents(ctx, model.MustDate("2027-01-01"), model.EventMeeting)
	require.NoError(t, err)
	assert.Equal(t, []string{"1001"}, ids)

	answers, err := dst.AnswersFor(ctx, "Subgroup", "1001")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, model.ChoiceList{"Software"}, answers[0].Choices)
}

func TestWriteJSON_EmptyDatabaseExportsArrays(t *testing.T) {
	db := newTestStore(t)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(context.Background(), db, &buf))

	out := buf.String()
	assert.Contains(t, out, `"students": []`)
	assert.NotContains(t, out, "null,")
	require.NoError(t, Validate(buf.Bytes()))
}

func TestValidate_RejectsBadEventType(t *testing.T) {
	err := Validate([]byte(`{
		"students": [],
		"events": [{"event_date": "2027-01-01", "event_type": "picnic", "description": null}],
		"checkins": [],
		"surveys": [],
		"answers": []
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestValidate_RejectsMalformedTimestamp(t *testing.T) {
	err := Validate([]byte(`{
		"students": [],
		"events": [],
		"checkins": [{"student_id": "1001", "event_type": "meeting", "timestamp": "yesterday", "inactive": false}],
		"surveys": [],
		"answers": []
	}`))
	require.Error(t, err)
}

func TestValidate_RejectsMissingCollection(t *testing.T) {
	err := Validate([]byte(`{"students": []}`))
	require.Error(t, err)
}

func TestValidate_RejectsNonJSON(t *testing.T) {
	err := Validate([]byte("students:\n  - nope"))
	require.Error(t, err)
}

func TestImportJSON_InvalidDumpWritesNothing(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	bad := `{
		"students": [{"student_id": "", "first_name": "", "last_name": "X", "grad_year": 2027, "email": "", "deactivated_on": null}],
		"events": [], "checkins": [], "surveys": [], "answers": []
	}`
	require.Error(t, ImportJSON(ctx, db, strings.NewReader(bad)))

	students, err := db.ListStudents(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, students)
}
