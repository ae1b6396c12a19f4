package intake

import "sync/atomic"

// Clock is a monotonic logical clock for outcome ordering.
//
// Every outcome emitted by a session is stamped with a strictly increasing
// seq number from this clock, so the order outcomes were decided in is
// explicit and does not depend on wall-clock timestamps (several scans can
// land within the same second).
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// though the session's single-writer design means only the Run goroutine
// calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
