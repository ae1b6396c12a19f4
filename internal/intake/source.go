package intake

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
)

// ErrSourceClosed is returned by Decode once the source has been released
// or its underlying stream has ended.
var ErrSourceClosed = errors.New("decode source closed")

// DecodeSource produces badge codes for a scan session.
//
// The session calls Acquire exactly once before its first Decode and
// Release exactly once when it ends, on every exit path including
// failures. Decode blocks until a code is available, the context is
// cancelled, or the source is exhausted (ErrSourceClosed).
//
// Badge scanners present as keyboards, so the production source is a
// line reader over a terminal stream; the camera capture device behind
// it is opaque to the session.
type DecodeSource interface {
	Acquire(ctx context.Context) error
	Decode(ctx context.Context) (string, error)
	Release() error
}

// ReaderSource decodes badge codes from a line-oriented stream.
// Blank lines are skipped; surrounding whitespace is trimmed.
type ReaderSource struct {
	scanner  *bufio.Scanner
	acquired bool
	released bool
}

// NewReaderSource wraps r as a DecodeSource.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{scanner: bufio.NewScanner(r)}
}

// Acquire marks the source ready. A released source cannot be reacquired.
func (s *ReaderSource) Acquire(ctx context.Context) error {
	if s.released {
		return newSourceError("source already released", nil)
	}
	s.acquired = true
	return nil
}

// Decode returns the next non-blank line.
//
// The underlying Scan call blocks in a read; cancellation is observed
// between lines. That is acceptable for an interactive station where a
// keystroke (or EOF) always arrives eventually.
func (s *ReaderSource) Decode(ctx context.Context) (string, error) {
	if !s.acquired || s.released {
		return "", ErrSourceClosed
	}
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return "", newSourceError("read badge stream", err)
			}
			return "", ErrSourceClosed
		}
		code := strings.TrimSpace(s.scanner.Text())
		if code != "" {
			return code, nil
		}
	}
}

// Release marks the source closed. Idempotent.
func (s *ReaderSource) Release() error {
	s.released = true
	return nil
}

// ScriptSource replays a fixed sequence of codes, then reports
// ErrSourceClosed. It records acquire/release calls so tests can assert
// the session's resource discipline.
type ScriptSource struct {
	codes []string
	next  int

	AcquireCalls int
	ReleaseCalls int

	// FailAcquire, when set, is returned from Acquire.
	FailAcquire error
	// FailAfter, when >= 0, makes Decode fail with FailErr once that many
	// codes have been delivered.
	FailAfter int
	FailErr   error
}

// NewScriptSource returns a source that yields the given codes in order.
func NewScriptSource(codes ...string) *ScriptSource {
	return &ScriptSource{codes: codes, FailAfter: -1}
}

func (s *ScriptSource) Acquire(ctx context.Context) error {
	s.AcquireCalls++
	return s.FailAcquire
}

func (s *ScriptSource) Decode(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.FailAfter >= 0 && s.next >= s.FailAfter {
		err := s.FailErr
		if err == nil {
			err = newSourceError("scripted failure", nil)
		}
		return "", err
	}
	if s.next >= len(s.codes) {
		return "", ErrSourceClosed
	}
	code := s.codes[s.next]
	s.next++
	return code, nil
}

func (s *ScriptSource) Release() error {
	s.ReleaseCalls++
	return nil
}
