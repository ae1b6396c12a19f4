package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/frcattend/attend/internal/model"
	"github.com/frcattend/attend/internal/store"
)

// State is the intake session lifecycle state.
type State int

const (
	// StateIdle is the zero state before construction completes.
	StateIdle State = iota
	// StateAwaitingEventSelection means the session exists but Start has
	// not been called.
	StateAwaitingEventSelection
	// StateScanning means the session is consuming the decode source.
	StateScanning
	// StateSurveyPaused means scan ingestion is suspended while the
	// survey gate collects answers from one student.
	StateSurveyPaused
	// StateExiting is terminal.
	StateExiting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingEventSelection:
		return "awaiting-event-selection"
	case StateScanning:
		return "scanning"
	case StateSurveyPaused:
		return "survey-paused"
	case StateExiting:
		return "exiting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Registry is the slice of the store the intake loop depends on: the event
// and checkin consistency rules plus the roster snapshot.
type Registry interface {
	AddEvent(ctx context.Context, ev model.Event) (int64, error)
	CheckedInStudents(ctx context.Context, date model.Date, t model.EventType) ([]string, error)
	AddCheckin(ctx context.Context, c model.Checkin) (int64, error)
	Roster(ctx context.Context) (map[string]model.Student, error)
}

var _ Registry = (*store.Store)(nil)

// SurveyGate collects and persists one set of survey answers for one
// student. It runs while the session is paused; returning (false, nil)
// means the student cancelled, which is not an error.
type SurveyGate interface {
	Collect(ctx context.Context, student model.Student, survey model.Survey) (bool, error)
}

// ExitGate authenticates a request to leave scan mode.
type ExitGate interface {
	Authenticate(ctx context.Context) bool
}

// DefaultDebounceWindow is how long a badge code is suppressed after a
// scan. A badge held in front of the sensor decodes many times per
// presentation; five seconds absorbs one presentation without blocking a
// deliberate rescan later.
const DefaultDebounceWindow = 5 * time.Second

// Config carries the explicit dependencies of one scan session.
// Ambient state is not read; everything the loop touches is injected here.
type Config struct {
	// Registry persists checkins and supplies the dedup seed. Required.
	Registry Registry

	// Source produces decoded badge codes. Required.
	Source DecodeSource

	// SurveyGate runs the interstitial survey. Optional; ignored unless
	// the session is started with a survey attached.
	SurveyGate SurveyGate

	// ExitGate authorizes leaving scan mode. Optional; without one,
	// RequestExit succeeds unconditionally.
	ExitGate ExitGate

	// DebounceWindow overrides DefaultDebounceWindow when positive.
	DebounceWindow time.Duration

	// Outcomes receives each scan decision in order. Optional.
	// Called from the Run goroutine; must not block for long.
	Outcomes func(Outcome)

	// Now supplies timestamps. Defaults to time.Now. Tests inject a
	// fixed clock so persisted timestamps are deterministic.
	Now func() time.Time

	// AfterFunc schedules debounce expiry. Defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func()) *time.Timer
}

// Session is the single-writer intake loop for one scanning sitting.
//
// All mutable session state (the debounce set, the per-event dedup set,
// the lifecycle state) is touched only by the Run goroutine. The capture
// producer and debounce timers communicate with it exclusively through
// the session queue, which is what lets both sets live without locks.
//
// Thread-safety model:
//   - Start: call once, before Run
//   - Run: exactly one goroutine
//   - RequestExit: safe from any goroutine
type Session struct {
	id    string // correlation token for logs
	cfg   Config
	clock *Clock
	queue *sessionQueue

	event  model.Event
	survey *model.Survey
	roster map[string]model.Student

	debounced map[string]*time.Timer
	checkedIn map[string]struct{}

	stateMu sync.Mutex
	state   State

	cancelProducer context.CancelFunc
}

// NewSession validates cfg and returns a session in
// StateAwaitingEventSelection.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Registry == nil {
		return nil, newConfigurationError("no registry: a session must never start without a valid store")
	}
	if cfg.Source == nil {
		return nil, newConfigurationError("no decode source")
	}
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = DefaultDebounceWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = time.AfterFunc
	}
	if cfg.Outcomes == nil {
		cfg.Outcomes = func(Outcome) {}
	}
	return &Session{
		id:        uuid.NewString(),
		cfg:       cfg,
		clock:     NewClock(),
		queue:     newSessionQueue(),
		debounced: make(map[string]*time.Timer),
		checkedIn: make(map[string]struct{}),
		state:     StateAwaitingEventSelection,
	}, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.stateMu.Lock()
	s.state = st
	s.stateMu.Unlock()
}

// Start binds the session to an event, seeds the dedup set from existing
// checkins, acquires the decode source, and launches the capture producer.
//
// Recording the event is idempotent: an existing (date, type) key is
// reused, not an error. The dedup seed is what makes stopping and
// restarting scanning mid-event safe.
func (s *Session) Start(ctx context.Context, eventType model.EventType, survey *model.Survey) error {
	if st := s.State(); st != StateAwaitingEventSelection {
		return newConfigurationError(fmt.Sprintf("start from state %s", st))
	}
	if !eventType.Valid() {
		return newConfigurationError(fmt.Sprintf("invalid event type %q", eventType))
	}
	if survey != nil {
		if err := survey.Validate(); err != nil {
			return newConfigurationError(fmt.Sprintf("invalid survey: %v", err))
		}
	}

	date := model.NewDate(s.cfg.Now().Date())
	s.event = model.Event{Date: date, Type: eventType}
	s.survey = survey

	if _, err := s.cfg.Registry.AddEvent(ctx, s.event); err != nil && !errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("record event %s: %w", s.event.Key(), err)
	}

	seed, err := s.cfg.Registry.CheckedInStudents(ctx, date, eventType)
	if err != nil {
		return fmt.Errorf("seed dedup set: %w", err)
	}
	for _, id := range seed {
		s.checkedIn[id] = struct{}{}
	}

	roster, err := s.cfg.Registry.Roster(ctx)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	s.roster = roster

	if err := s.cfg.Source.Acquire(ctx); err != nil {
		return newSourceError("acquire decode source", err)
	}

	producerCtx, cancel := context.WithCancel(context.Background())
	s.cancelProducer = cancel
	go s.produce(producerCtx)

	s.setState(StateScanning)
	slog.Info("intake session started",
		"session", s.id,
		"event", s.event.Key(),
		"seeded", len(seed),
		"roster", len(roster),
	)
	return nil
}

// ID returns the session correlation token.
func (s *Session) ID() string { return s.id }

// Event returns the event this session records against. Valid after Start.
func (s *Session) Event() model.Event { return s.event }

// produce pulls decoded codes from the source and feeds the queue.
// Runs in its own goroutine so a blocking capture device never stalls
// the consumer loop.
func (s *Session) produce(ctx context.Context) {
	for {
		code, err := s.cfg.Source.Decode(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			// Source exhaustion and hard failures both end the
			// session; Run tells them apart.
			s.queue.Enqueue(sessionEvent{kind: eventSourceFailed, err: err})
			return
		}
		if code == "" {
			continue
		}
		if !s.queue.Enqueue(sessionEvent{kind: eventScan, code: code}) {
			return
		}
	}
}

// RequestExit asks the session to leave scan mode. The exit gate runs in
// the consumer loop; on authentication failure scanning resumes.
// Thread-safe: may be called from any goroutine.
func (s *Session) RequestExit() {
	s.queue.Enqueue(sessionEvent{kind: eventExitRequest})
}

// Run is the single-writer consumer loop. Blocks until the session ends:
// an authenticated exit or source exhaustion returns nil, an unrecoverable
// source failure returns a SessionError, context cancellation returns the
// context error. The decode source is released on every return path.
//
// Must be called from exactly one goroutine, after Start.
func (s *Session) Run(ctx context.Context) error {
	if st := s.State(); st != StateScanning {
		return newConfigurationError(fmt.Sprintf("run from state %s", st))
	}
	defer s.shutdown()

	for {
		ev, ok := s.queue.TryDequeue()
		if ok {
			done, err := s.processEvent(ctx, ev)
			if done || err != nil {
				return err
			}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("intake session stopping: context cancelled")
			return ctx.Err()

		case <-s.queue.Wait():
			// The signal channel coalesces wakeups, so a token can outlive
			// the events that produced it: two badges enqueued while the
			// consumer is mid-write leave one token behind after both are
			// drained. A stale wakeup loops back to TryDequeue; only a
			// closed and drained queue ends the loop.
			if s.queue.Closed() && s.queue.Len() == 0 {
				return nil
			}
		}
	}
}

// processEvent routes one queue item. Returns done=true when the session
// should end cleanly.
func (s *Session) processEvent(ctx context.Context, ev sessionEvent) (done bool, err error) {
	switch ev.kind {
	case eventScan:
		s.handleScan(ctx, ev.code)
		return false, nil

	case eventDebounceExpiry:
		delete(s.debounced, ev.code)
		return false, nil

	case eventExitRequest:
		if s.cfg.ExitGate != nil && !s.cfg.ExitGate.Authenticate(ctx) {
			slog.Warn("exit request denied, resuming scan")
			return false, nil
		}
		slog.Info("intake session exiting")
		return true, nil

	case eventSourceFailed:
		if errors.Is(ev.err, ErrSourceClosed) {
			slog.Info("intake session stopping: decode source exhausted")
			return true, nil
		}
		return true, newSourceError("decode source failed", ev.err)

	default:
		return false, fmt.Errorf("unknown session event kind: %d", ev.kind)
	}
}

// handleScan applies debounce, dedup, and persistence for one badge code.
// Called only from the Run goroutine.
func (s *Session) handleScan(ctx context.Context, code string) {
	if _, hot := s.debounced[code]; hot {
		// Same physical presentation still decoding; not an outcome.
		return
	}
	s.debounced[code] = s.cfg.AfterFunc(s.cfg.DebounceWindow, func() {
		// Expiry funnels through the queue; a timer that outlives the
		// session hits a closed queue and does nothing.
		s.queue.Enqueue(sessionEvent{kind: eventDebounceExpiry, code: code})
	})

	now := s.cfg.Now()
	student, known := s.roster[code]
	if !known {
		s.emit(Outcome{Kind: OutcomeUnknown, Code: code, Timestamp: now})
		return
	}
	if _, dup := s.checkedIn[code]; dup {
		s.emit(Outcome{Kind: OutcomeDuplicate, Code: code, Student: &student, Timestamp: now})
		return
	}

	checkin := model.Checkin{
		StudentID: student.ID,
		EventType: s.event.Type,
		Timestamp: model.NewDateTime(now),
		Inactive:  !student.Active(),
	}
	id, err := s.cfg.Registry.AddCheckin(ctx, checkin)
	if err != nil {
		// The student stays out of the dedup set so a rescan retries
		// the write instead of reporting a duplicate.
		slog.Error("checkin rejected by store", "student", student.ID, "error", err)
		s.emit(Outcome{Kind: OutcomeFailure, Code: code, Student: &student, Timestamp: now, Err: err})
		return
	}
	s.checkedIn[code] = struct{}{}

	kind := OutcomeSuccess
	if checkin.Inactive {
		kind = OutcomeWarning
	}
	s.emit(Outcome{Kind: kind, Code: code, Student: &student, CheckinID: id, Timestamp: now})

	if s.survey != nil && s.cfg.SurveyGate != nil && kind == OutcomeSuccess {
		s.runSurvey(ctx, student)
	}
}

// runSurvey suspends scan ingestion while the gate collects answers.
// Scans decoded meanwhile accumulate in the queue and are processed, in
// order, once the gate closes. Gate errors are logged and scanning
// resumes; a broken survey must not take the station down.
func (s *Session) runSurvey(ctx context.Context, student model.Student) {
	s.setState(StateSurveyPaused)
	defer s.setState(StateScanning)

	answered, err := s.cfg.SurveyGate.Collect(ctx, student, *s.survey)
	if err != nil {
		slog.Error("survey gate failed", "student", student.ID, "survey", s.survey.Title, "error", err)
		return
	}
	if !answered {
		slog.Debug("survey declined", "student", student.ID, "survey", s.survey.Title)
	}
}

func (s *Session) emit(o Outcome) {
	o.Seq = s.clock.Next()
	s.cfg.Outcomes(o)
}

// shutdown tears the session down: terminal state, producer cancelled,
// pending debounce timers stopped, source released, queue closed.
func (s *Session) shutdown() {
	s.setState(StateExiting)

	if s.cancelProducer != nil {
		s.cancelProducer()
	}
	for code, t := range s.debounced {
		t.Stop()
		delete(s.debounced, code)
	}
	s.queue.Close()

	// The producer may still be blocked in a Decode read (a keyboard-wedge
	// scanner delivers nothing until the next badge). It is not waited on:
	// once its read returns it finds a cancelled context or a closed queue
	// and exits.
	if err := s.cfg.Source.Release(); err != nil {
		slog.Error("release decode source", "error", err)
	}
}
