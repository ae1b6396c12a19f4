package intake

import "sync"

// sessionEventKind distinguishes the items flowing through a session queue.
type sessionEventKind int

const (
	// eventScan carries a decoded badge identifier from the producer.
	eventScan sessionEventKind = iota + 1
	// eventDebounceExpiry retires a code from the debounce set. Expiries
	// funnel through the queue so the set is only ever touched by the
	// consumer goroutine.
	eventDebounceExpiry
	// eventExitRequest asks the session to leave scan mode (gated).
	eventExitRequest
	// eventSourceFailed reports an unrecoverable decode source failure.
	eventSourceFailed
)

// sessionEvent wraps scans, debounce expiries, and control requests.
type sessionEvent struct {
	kind sessionEventKind
	code string
	err  error
}

// sessionQueue is a thread-safe FIFO for session events.
//
// The queue is unbounded so the capture producer never blocks behind a
// paused consumer (e.g. while the survey gate is open); badges scanned
// during a pause are processed in arrival order once the gate closes.
//
// The signal channel enables context-aware waiting in the Run loop.
type sessionQueue struct {
	mu     sync.Mutex
	events []sessionEvent
	closed bool
	signal chan struct{} // buffered size 1; coalesces wakeups
}

func newSessionQueue() *sessionQueue {
	return &sessionQueue{
		events: make([]sessionEvent, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Thread-safe; returns false if the queue is closed. A debounce timer that
// fires after session teardown lands here and is dropped, which is what
// guarantees no deferred work runs against a released session.
func (q *sessionQueue) Enqueue(e sessionEvent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
func (q *sessionQueue) TryDequeue() (sessionEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return sessionEvent{}, false
	}

	e := q.events[0]
	q.events[0] = sessionEvent{}

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
func (q *sessionQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *sessionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Closed reports whether the queue has been closed.
func (q *sessionQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close marks the queue closed and wakes all waiters.
func (q *sessionQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
