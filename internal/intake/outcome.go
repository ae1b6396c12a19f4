package intake

import (
	"time"

	"github.com/frcattend/attend/internal/model"
)

// OutcomeKind classifies the result of processing one scanned badge.
type OutcomeKind string

const (
	// OutcomeSuccess means a checkin was persisted for the student.
	OutcomeSuccess OutcomeKind = "success"

	// OutcomeDuplicate means the student already has a checkin for this
	// event; no write was attempted.
	OutcomeDuplicate OutcomeKind = "duplicate"

	// OutcomeUnknown means the scanned code matched no roster entry.
	OutcomeUnknown OutcomeKind = "unknown"

	// OutcomeWarning means a checkin was persisted for a deactivated
	// student and flagged inactive for later review.
	OutcomeWarning OutcomeKind = "warning"

	// OutcomeFailure means the registry rejected the write. The student
	// stays eligible so a rescan can retry.
	OutcomeFailure OutcomeKind = "failure"
)

// Outcome is the decision made for one scan, in decision order.
//
// Seq orders outcomes within a session. Debounced scans produce no Outcome
// at all: a suppressed repeat is noise, not a decision.
type Outcome struct {
	Seq       int64          `json:"seq"`
	Kind      OutcomeKind    `json:"kind"`
	Code      string         `json:"code"`
	Student   *model.Student `json:"student,omitempty"`
	CheckinID int64          `json:"checkin_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Err       error          `json:"-"`
}
