package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frcattend/attend/internal/intake"
	"github.com/frcattend/attend/internal/model"
	"github.com/frcattend/attend/internal/store"
)

// OutcomeRecord is one emitted outcome in canonical snapshot form.
// Timestamps are excluded: they are a function of the scenario clock, and
// the decision order is already captured by seq.
type OutcomeRecord struct {
	Seq       int64  `json:"seq"`
	Kind      string `json:"kind"`
	Code      string `json:"code"`
	Student   string `json:"student,omitempty"`
	CheckinID int64  `json:"checkin_id,omitempty"`
}

// Result captures everything a scenario golden asserts on.
type Result struct {
	ScenarioName      string          `json:"scenario_name"`
	FinalState        string          `json:"final_state"`
	Outcomes          []OutcomeRecord `json:"outcomes"`
	CheckinsPersisted int             `json:"checkins_persisted"`
	AnswersPersisted  int             `json:"answers_persisted"`
}

// Run executes a scenario against a fresh database at dbPath.
//
// The session runs with a scripted decode source, a clock frozen at the
// scenario's Clock value, and debounce timers that never fire, so a
// repeated scan within one scenario is always suppressed. Retirement is
// covered by unit tests; scenarios exercise the decision pipeline.
func Run(s *Scenario, dbPath string) (*Result, error) {
	ctx := context.Background()

	clock, err := model.ParseDateTime(s.Clock)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: clock: %w", s.Name, err)
	}
	eventType, err := model.ParseEventType(s.EventType)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := loadFixtures(ctx, db, s); err != nil {
		return nil, err
	}

	var survey *model.Survey
	var gate intake.SurveyGate
	if s.Survey != nil {
		survey = &model.Survey{
			Title:         s.Survey.Title,
			Question:      s.Survey.Question,
			Choices:       model.ChoiceList(s.Survey.Choices),
			Multiselect:   s.Survey.Multiselect,
			AllowFreetext: s.Survey.AllowFreetext,
			Replace:       s.Survey.Replace,
		}
		if err := db.AddSurvey(ctx, *survey); err != nil {
			return nil, err
		}
		gate = &autoGate{
			db:      db,
			survey:  *survey,
			date:    clock.Date(),
			choices: model.ChoiceList(s.Survey.AutoAnswer),
		}
	}

	var records []OutcomeRecord
	session, err := intake.NewSession(intake.Config{
		Registry:   db,
		Source:     intake.NewScriptSource(s.Scans...),
		SurveyGate: gate,
		Now:        func() time.Time { return clock.Time() },
		AfterFunc: func(d time.Duration, f func()) *time.Timer {
			return time.NewTimer(24 * time.Hour)
		},
		Outcomes: func(o intake.Outcome) {
			r := OutcomeRecord{
				Seq:       o.Seq,
				Kind:      string(o.Kind),
				Code:      o.Code,
				CheckinID: o.CheckinID,
			}
			if o.Student != nil {
				r.Student = o.Student.ID
			}
			records = append(records, r)
		},
	})
	if err != nil {
		return nil, err
	}
	if err := session.Start(ctx, eventType, survey); err != nil {
		return nil, err
	}
	if err := session.Run(ctx); err != nil {
		return nil, err
	}

	checkins, err := db.ListCheckins(ctx)
	if err != nil {
		return nil, err
	}
	answers, err := db.ListAnswers(ctx)
	if err != nil {
		return nil, err
	}
	return &Result{
		ScenarioName:      s.Name,
		FinalState:        session.State().String(),
		Outcomes:          records,
		CheckinsPersisted: len(checkins),
		AnswersPersisted:  len(answers),
	}, nil
}

// loadFixtures writes the roster and prior checkins the scenario declares.
func loadFixtures(ctx context.Context, db *store.Store, s *Scenario) error {
	for _, spec := range s.Roster {
		st := model.Student{
			ID:        spec.ID,
			FirstName: spec.FirstName,
			LastName:  spec.LastName,
			GradYear:  spec.GradYear,
		}
		if spec.DeactivatedOn != "" {
			d, err := model.ParseDate(spec.DeactivatedOn)
			if err != nil {
				return fmt.Errorf("scenario %s: student %s: %w", s.Name, spec.ID, err)
			}
			st.DeactivatedOn = &d
		}
		if err := db.AddStudent(ctx, st); err != nil {
			return fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}
	for _, pc := range s.PriorCheckins {
		ts, err := model.ParseDateTime(pc.Timestamp)
		if err != nil {
			return fmt.Errorf("scenario %s: prior checkin: %w", s.Name, err)
		}
		t := model.EventType(pc.EventType)
		if pc.EventType == "" {
			t, err = model.ParseEventType(s.EventType)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", s.Name, err)
			}
		}
		ev := model.Event{Date: ts.Date(), Type: t}
		if _, err := db.AddEvent(ctx, ev); err != nil && !errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		if _, err := db.AddCheckin(ctx, model.Checkin{
			StudentID: pc.Student,
			EventType: t,
			Timestamp: ts,
		}); err != nil {
			return fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}
	return nil
}

// autoGate answers the survey with a fixed choice set on behalf of every
// student the session shows it to.
type autoGate struct {
	db      *store.Store
	survey  model.Survey
	date    model.Date
	choices model.ChoiceList
}

func (g *autoGate) Collect(ctx context.Context, student model.Student, survey model.Survey) (bool, error) {
	err := g.db.AddAnswer(ctx, model.Answer{
		StudentID:   student.ID,
		SurveyTitle: g.survey.Title,
		Date:        g.date,
		Choices:     g.choices,
	}, g.survey.Replace)
	if err != nil {
		return false, err
	}
	return true, nil
}
