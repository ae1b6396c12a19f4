// Package model defines the domain types shared by the store, the intake
// engine, and the CLI: students, events, checkins, surveys, and answers.
//
// Types here carry no database handle. Persistence lives in internal/store;
// the structs carry db tags for sqlx scanning and json tags for the bulk
// export/import dump format.
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// EventType is the closed enumeration of event kinds at which attendance
// is taken. Stored as lowercase text.
type EventType string

const (
	EventMeeting     EventType = "meeting"
	EventBuild       EventType = "build"
	EventCompetition EventType = "competition"
	EventOutreach    EventType = "outreach"
	EventVirtual     EventType = "virtual"
	EventNone        EventType = "none"
)

// EventTypes returns all valid event types in display order.
func EventTypes() []EventType {
	return []EventType{
		EventMeeting,
		EventBuild,
		EventCompetition,
		EventOutreach,
		EventVirtual,
		EventNone,
	}
}

// ParseEventType converts user input to an EventType, case-insensitively.
func ParseEventType(s string) (EventType, error) {
	t := EventType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown event type %q (valid: %s)", s, joinEventTypes())
	}
	return t, nil
}

// Valid reports whether the value is one of the closed set.
func (t EventType) Valid() bool {
	switch t {
	case EventMeeting, EventBuild, EventCompetition, EventOutreach, EventVirtual, EventNone:
		return true
	}
	return false
}

func (t EventType) String() string { return string(t) }

// Title returns the event type capitalized for display.
func (t EventType) Title() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(t.String()[:1]) + t.String()[1:]
}

func joinEventTypes() string {
	parts := make([]string, 0, len(EventTypes()))
	for _, t := range EventTypes() {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, ", ")
}

// Student is an organization member. The ID is the stable external identifier
// printed on the member's badge; it is what the scanner decodes.
//
// Deactivation never deletes history: a deactivated student can still scan
// and is flagged, not rejected.
type Student struct {
	ID            string `db:"student_id" json:"student_id"`
	FirstName     string `db:"first_name" json:"first_name"`
	LastName      string `db:"last_name" json:"last_name"`
	GradYear      int    `db:"grad_year" json:"grad_year"`
	Email         string `db:"email" json:"email"`
	DeactivatedOn *Date  `db:"deactivated_on" json:"deactivated_on"`
}

// Active reports whether the student has not been deactivated.
func (s Student) Active() bool { return s.DeactivatedOn == nil }

// FullName returns "First Last" for display.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Validate checks the fields required to persist a student.
func (s Student) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("student id is required")
	}
	if strings.TrimSpace(s.LastName) == "" {
		return fmt.Errorf("student last name is required")
	}
	if s.GradYear < 1990 || s.GradYear > 2999 {
		return fmt.Errorf("graduation year %d out of range", s.GradYear)
	}
	return nil
}

// Event is a uniquely-keyed (date, type) occurrence at which checkins are
// collected. The key is the pair; ID is a surrogate assigned by the store.
type Event struct {
	ID          int64     `db:"event_id" json:"-"`
	Date        Date      `db:"event_date" json:"event_date"`
	Type        EventType `db:"event_type" json:"event_type"`
	Description *string   `db:"description" json:"description"`
}

// Key renders the unique (date, type) pair for logs and error messages.
func (e Event) Key() string {
	return e.Date.String() + "/" + string(e.Type)
}

// Checkin records that a student was present at one event occurrence.
// EventDate is derived from Timestamp by the store (generated column) and is
// populated on reads only.
//
// Inactive flags checkins recorded while the student was deactivated.
type Checkin struct {
	ID        int64     `db:"checkin_id" json:"-"`
	StudentID string    `db:"student_id" json:"student_id"`
	EventType EventType `db:"event_type" json:"event_type"`
	Timestamp DateTime  `db:"timestamp" json:"timestamp"`
	Inactive  bool      `db:"inactive" json:"inactive"`
	EventDate Date      `db:"event_date" json:"-"`
}

// Date truncates the checkin timestamp to the event day.
func (c Checkin) Date() Date { return c.Timestamp.Date() }

// ChoiceList is a list of survey choices stored as a JSON array in a TEXT
// column.
type ChoiceList []string

// Value implements driver.Valuer.
func (c ChoiceList) Value() (driver.Value, error) {
	if c == nil {
		c = ChoiceList{}
	}
	data, err := json.Marshal([]string(c))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner. A bare (non-JSON) string is treated as a
// single choice, matching how freetext answers were stored historically.
func (c *ChoiceList) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*c = nil
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into ChoiceList", src)
	}
	if s == "" {
		*c = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		*c = ChoiceList{s}
		return nil
	}
	*c = ChoiceList(out)
	return nil
}

// Survey is a single question with a fixed set of choices, optionally
// presented to each student at checkin time.
//
// Replace governs answers across dates: when true, only the latest answer
// matters and older rows are overwritten in place; when false, one answer is
// retained per date (e.g. an annual survey retaken each season). Same-day
// resubmission always overwrites regardless of Replace, so a student can
// correct a mistaken answer.
type Survey struct {
	Title         string     `db:"title" json:"title"`
	Question      string     `db:"question" json:"question"`
	Choices       ChoiceList `db:"choices" json:"choices"`
	Multiselect   bool       `db:"multiselect" json:"multiselect"`
	AllowFreetext bool       `db:"allow_freetext" json:"allow_freetext"`
	MaxLength     *int       `db:"max_length" json:"max_length"`
	Replace       bool       `db:"replace" json:"replace"`
}

// Validate checks the fields required to persist a survey.
func (s Survey) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("survey title is required")
	}
	if strings.TrimSpace(s.Question) == "" {
		return fmt.Errorf("survey question is required")
	}
	if len(s.Choices) == 0 && !s.AllowFreetext {
		return fmt.Errorf("survey needs at least one choice or freetext enabled")
	}
	if s.MaxLength != nil && !s.AllowFreetext {
		return fmt.Errorf("max_length only applies when freetext is allowed")
	}
	return nil
}

// Answer is one student's response to one survey on one date. The survey is
// referenced by title (soft foreign key); within one survey+student pair at
// most one answer exists per date.
type Answer struct {
	StudentID   string     `db:"student_id" json:"student_id"`
	SurveyTitle string     `db:"survey_title" json:"survey_title"`
	Date        Date       `db:"answer_date" json:"answer_date"`
	Choices     ChoiceList `db:"choices" json:"choices"`
	Freetext    *string    `db:"freetext_answer" json:"freetext_answer"`
}
