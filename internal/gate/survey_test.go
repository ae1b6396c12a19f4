package gate

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frcattend/attend/internal/model"
)

type recordingWriter struct {
	answers []model.Answer
	replace []bool
	fail    error
}

func (r *recordingWriter) AddAnswer(ctx context.Context, a model.Answer, replace bool) error {
	if r.fail != nil {
		return r.fail
	}
	r.answers = append(r.answers, a)
	r.replace = append(r.replace, replace)
	return nil
}

var promptSurvey = model.Survey{
	Title:    "Subgroup",
	Question: "Which subgroup are you in?",
	Choices:  model.ChoiceList{"Mechanical", "Software", "Outreach"},
	Replace:  true,
}

var promptStudent = model.Student{ID: "1001", FirstName: "Ada", LastName: "Lovelace", GradYear: 2027}

func newTestPrompt(db *recordingWriter, input string) (*SurveyPrompt, *bytes.Buffer) {
	var out bytes.Buffer
	p := NewSurveyPrompt(db, strings.NewReader(input), &out)
	p.now = func() time.Time { return time.Date(2027, 1, 10, 17, 30, 0, 0, time.UTC) }
	return p, &out
}

func TestSurveyPrompt_SingleChoice(t *testing.T) {
	db := &recordingWriter{}
	p, out := newTestPrompt(db, "2\n")

	answered, err := p.Collect(context.Background(), promptStudent, promptSurvey)
	require.NoError(t, err)
	assert.True(t, answered)

	require.Len(t, db.answers, 1)
	a := db.answers[0]
	assert.Equal(t, "1001", a.StudentID)
	assert.Equal(t, "Subgroup", a.SurveyTitle)
	assert.Equal(t, "2027-01-10", a.Date.String())
	assert.Equal(t, model.ChoiceList{"Software"}, a.Choices)
	assert.Nil(t, a.Freetext)
	assert.Equal(t, []bool{true}, db.replace)

	assert.Contains(t, out.String(), "Which subgroup are you in?")
	assert.Contains(t, out.String(), "2) Software")
}

func TestSurveyPrompt_SkipOnEmptyInput(t *testing.T) {
	db := &recordingWriter{}
	p, _ := newTestPrompt(db, "\n")

	answered, err := p.Collect(context.Background(), promptStudent, promptSurvey)
	require.NoError(t, err)
	assert.False(t, answered)
	assert.Empty(t, db.answers)
}

func TestSurveyPrompt_InvalidSelectionDoesNotPersist(t *testing.T) {
	for name, input := range map[string]string{
		"out of range": "9\n",
		"not a number": "blue\n",
		"multi on single": "1,2\n",
	} {
		t.Run(name, func(t *testing.T) {
			db := &recordingWriter{}
			p, _ := newTestPrompt(db, input)

			answered, err := p.Collect(context.Background(), promptStudent, promptSurvey)
			require.NoError(t, err)
			assert.False(t, answered)
			assert.Empty(t, db.answers)
		})
	}
}

func TestSurveyPrompt_Multiselect(t *testing.T) {
	sv := promptSurvey
	sv.Multiselect = true

	db := &recordingWriter{}
	p, _ := newTestPrompt(db, "1, 3\n")

	answered, err := p.Collect(context.Background(), promptStudent, sv)
	require.NoError(t, err)
	assert.True(t, answered)
	require.Len(t, db.answers, 1)
	assert.Equal(t, model.ChoiceList{"Mechanical", "Outreach"}, db.answers[0].Choices)
}

func TestSurveyPrompt_Freetext(t *testing.T) {
	sv := model.Survey{
		Title:         "Feedback",
		Question:      "How was the meeting?",
		AllowFreetext: true,
		Replace:       false,
	}

	db := &recordingWriter{}
	p, _ := newTestPrompt(db, "great snacks\n")

	answered, err := p.Collect(context.Background(), promptStudent, sv)
	require.NoError(t, err)
	assert.True(t, answered)
	require.Len(t, db.answers, 1)
	require.NotNil(t, db.answers[0].Freetext)
	assert.Equal(t, "great snacks", *db.answers[0].Freetext)
	assert.Empty(t, db.answers[0].Choices)
	assert.Equal(t, []bool{false}, db.replace)
}

func TestSurveyPrompt_FreetextMaxLength(t *testing.T) {
	maxLen := 5
	sv := model.Survey{
		Title:         "Feedback",
		Question:      "How was the meeting?",
		AllowFreetext: true,
		MaxLength:     &maxLen,
	}

	db := &recordingWriter{}
	p, _ := newTestPrompt(db, "this is far too long\n")

	answered, err := p.Collect(context.Background(), promptStudent, sv)
	require.NoError(t, err)
	assert.False(t, answered)
	assert.Empty(t, db.answers)
}

func TestSurveyPrompt_PersistErrorSurfaces(t *testing.T) {
	db := &recordingWriter{fail: assert.AnError}
	p, _ := newTestPrompt(db, "1\n")

	answered, err := p.Collect(context.Background(), promptStudent, promptSurvey)
	require.Error(t, err)
	assert.False(t, answered)
}

func TestSurveyPrompt_CancelledContext(t *testing.T) {
	db := &recordingWriter{}
	p, _ := newTestPrompt(db, "1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Collect(ctx, promptStudent, promptSurvey)
	require.Error(t, err)
	assert.Empty(t, db.answers)
}
