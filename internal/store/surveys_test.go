package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frcattend/attend/internal/model"
)

func subgroupSurvey(replace bool) model.Survey {
	return model.Survey{
		Title:    "Subgroup",
		Question: "Which subgroup are you in?",
		Choices:  model.ChoiceList{"Mario Kart", "Zelda", "Metroid"},
		Replace:  replace,
	}
}

func TestAddSurvey_DuplicateTitle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddSurvey(ctx, subgroupSurvey(true)))
	err := s.AddSurvey(ctx, subgroupSurvey(true))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSurvey_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	maxLen := 200
	in := model.Survey{
		Title:         "Feedback",
		Question:      "How was the meeting?",
		Choices:       model.ChoiceList{"Great", "Fine"},
		Multiselect:   true,
		AllowFreetext: true,
		MaxLength:     &maxLen,
		Replace:       false,
	}
	require.NoError(t, s.AddSurvey(ctx, in))

	got, err := s.GetSurvey(ctx, "Feedback")
	require.NoError(t, err)
	assert.Equal(t, in, *got)
}

func TestUpdateSurvey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddSurvey(ctx, subgroupSurvey(false)))

	updated := subgroupSurvey(true)
	updated.Question = "Pick your subgroup"
	require.NoError(t, s.UpdateSurvey(ctx, updated))

	got, err := s.GetSurvey(ctx, "Subgroup")
	require.NoError(t, err)
	assert.Equal(t, "Pick your subgroup", got.Question)
	assert.True(t, got.Replace)

	missing := subgroupSurvey(true)
	missing.Title = "Nope"
	assert.ErrorIs(t, s.UpdateSurvey(ctx, missing), ErrNotFound)
}

func TestDeleteSurvey_RetainsAnswers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addStudent(t, s, "1001", "Ada", "Lovelace")
	require.NoError(t, s.AddSurvey(ctx, subgroupSurvey(true)))
	require.NoError(t, s.AddAnswer(ctx, model.Answer{
		StudentID:   "1001",
		SurveyTitle: "Subgroup",
		Date:        model.MustDate("2027-01-01"),
		Choices:     model.ChoiceList{"Zelda"},
	}, true))

	require.NoError(t, s.DeleteSurvey(ctx, "Subgroup"))

	_, err := s.GetSurvey(ctx, "Subgroup")
	assert.ErrorIs(t, err, ErrNotFound)

	// The survey reference is a soft key: history survives deletion.
	answers, err := s.AnswersFor(ctx, "Subgroup", "1001")
	require.NoError(t, err)
	assert.Len(t, answers, 1)

	assert.ErrorIs(t, s.DeleteSurvey(ctx, "Subgroup"), ErrNotFound)
}

func answer(studentID, date string, choice string) model.Answer {
	return model.Answer{
		StudentID:   studentID,
		SurveyTitle: "Subgroup",
		Date:        model.MustDate(date),
		Choices:     model.ChoiceList{choice},
	}
}

func TestAddAnswer_SameDayAlwaysOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addStudent(t, s, "1001", "Ada", "Lovelace")
	require.NoError(t, s.AddSurvey(ctx, subgroupSurvey(true)))

	// Mario Kart in the afternoon, Zelda later the same day: one row,
	// latest value, regardless of the replace policy.
	require.NoError(t, s.AddAnswer(ctx, answer("1001", "2027-01-01", "Mario Kart"), true))
	require.NoError(t, s.AddAnswer(ctx, answer("1001", "2027-01-01", "Zelda"), true))

	answers, err := s.AnswersFor(ctx, "Subgroup", "1001")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, model.ChoiceList{"Zelda"}, answers[0].Choices)
}

func TestAddAnswer_SameDayOverwritesEvenWithoutReplace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addStudent(t, s, "1001", "Ada", "Lovelace")
	require.NoError(t, s.AddSurvey(ctx, subgroupSurvey(false)))

	require.NoError(t, s.AddAnswer(ctx, answer("1001", "2027-01-01", "Mario Kart"), false))
	require.NoError(t, s.AddAnswer(ctx, answer("1001", "2027-01-01", "Zelda"), false))

	answers, err := s.AnswersFor(ctx, "Subgroup", "1001")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, model.ChoiceList{"Zelda"}, answers[0].Choices)
}

func TestAddAnswer_ReplaceFalseRetainsPerDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addStudent(t, s, "1001", "Ada", "Lovelace")
	require.NoError(t, s.AddSurvey(ctx, subgroupSurvey(false)))

	require.NoError(t, s.AddAnswer(ctx, answer("1001", "2026-09-01", "Mario Kart"), false))
	require.NoError(t, s.AddAnswer(ctx, answer("1001", "2027-01-01", "Zelda"), false))

	// One answer per season is retained.
	answers, err := s.AnswersFor(ctx, "Subgroup", "1001")
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, "2027-01-01", answers[0].Date.String(), "newest first")
	assert.Equal(t, "2026-09-01", answers[1].Date.String())
}

func TestAddAnswer_ReplaceTrueOverwritesMostRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addStudent(t, s, "1001", "Ada", "Lovelace")
	require.NoError(t, s.AddSurvey(ctx, subgroupSurvey(true)))

	require.NoError(t, s.AddAnswer(ctx, answer("1001", "2026-09-01", "Mario Kart"), true))
	require.NoError(t, s.AddAnswer(ctx, answer("1001", "2027-01-01", "Zelda"), true))

	// Only the latest answer matters: the old row was rewritten in place.
	answers, err := s.AnswersFor(ctx, "Subgroup", "1001")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "2027-01-01", answers[0].Date.String())
	assert.Equal(t, model.ChoiceList{"Zelda"}, answers[0].Choices)
}

func TestAddAnswer_FreetextAndDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addStudent(t, s, "1001", "Ada", "Lovelace")
	require.NoError(t, s.AddSurvey(ctx, model.Survey{
		Title:         "Snacks",
		Question:      "Favorite snack?",
		AllowFreetext: true,
	}))

	text := "trail mix"
	require.NoError(t, s.AddAnswer(ctx, model.Answer{
		StudentID:   "1001",
		SurveyTitle: "Snacks",
		Freetext:    &text,
	}, false))

	answers, err := s.AnswersFor(ctx, "Snacks", "1001")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, model.Today().String(), answers[0].Date.String(), "zero date defaults to today")
	require.NotNil(t, answers[0].Freetext)
	assert.Equal(t, "trail mix", *answers[0].Freetext)

	err = s.AddAnswer(ctx, model.Answer{SurveyTitle: "Snacks"}, false)
	assert.Error(t, err)
}
