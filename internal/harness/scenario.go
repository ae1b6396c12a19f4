package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one intake conformance scenario: the world before the
// session, the scans during it, and nothing else. Expected behavior lives
// in the golden file, not here.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Clock is the fixed session time, e.g. "2027-01-01T17:30:00".
	// Every persisted timestamp and the session's event date derive
	// from it.
	Clock string `yaml:"clock"`

	// EventType selects the event for the session (e.g. "meeting").
	EventType string `yaml:"event_type"`

	// Survey optionally attaches an interstitial survey to the session.
	Survey *SurveySpec `yaml:"survey,omitempty"`

	// Roster is loaded into the database before the session starts.
	Roster []StudentSpec `yaml:"roster"`

	// PriorCheckins exist before the session starts; they seed the
	// dedup set exactly as a restarted mid-event session would see.
	PriorCheckins []PriorCheckin `yaml:"prior_checkins,omitempty"`

	// Scans is the badge code sequence the decode source delivers.
	Scans []string `yaml:"scans"`
}

// StudentSpec declares one roster member.
type StudentSpec struct {
	ID            string `yaml:"id"`
	FirstName     string `yaml:"first_name"`
	LastName      string `yaml:"last_name"`
	GradYear      int    `yaml:"grad_year"`
	DeactivatedOn string `yaml:"deactivated_on,omitempty"`
}

// SurveySpec declares the session survey and the answers the scripted
// gate submits for every student it is shown to.
type SurveySpec struct {
	Title         string   `yaml:"title"`
	Question      string   `yaml:"question"`
	Choices       []string `yaml:"choices,omitempty"`
	Multiselect   bool     `yaml:"multiselect,omitempty"`
	AllowFreetext bool     `yaml:"allow_freetext,omitempty"`
	Replace       bool     `yaml:"replace,omitempty"`
	AutoAnswer    []string `yaml:"auto_answer"`
}

// PriorCheckin declares a checkin recorded before the session.
type PriorCheckin struct {
	Student   string `yaml:"student"`
	EventType string `yaml:"event_type"`
	Timestamp string `yaml:"timestamp"`
}

// LoadScenario reads and validates a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if s.Clock == "" {
		return nil, fmt.Errorf("scenario %s: clock is required", path)
	}
	if s.EventType == "" {
		return nil, fmt.Errorf("scenario %s: event_type is required", path)
	}
	return &s, nil
}
