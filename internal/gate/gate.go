// Package gate implements the shared-password gate protecting exit from
// scan mode.
//
// The station runs unattended at the door; the gate keeps a passer-by from
// closing the scanning screen, nothing more. One shared password, hashed
// with bcrypt in the config file, is the whole auth model.
package gate

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MaxAttempts is how many password tries one exit request allows before
// scanning resumes.
const MaxAttempts = 3

// HashPassword returns a bcrypt hash suitable for the config file.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// PasswordGate prompts for the shared password and checks it against a
// bcrypt hash.
//
// Prompts are read from their own stream, not the badge stream: a
// keyboard-wedge scanner types into stdin, so the gate reads from the
// controlling terminal instead.
type PasswordGate struct {
	hash string
	in   *bufio.Reader
	out  io.Writer
}

// NewPasswordGate builds a gate around the given hash and prompt streams.
// An empty hash disables the gate entirely.
func NewPasswordGate(hash string, in io.Reader, out io.Writer) *PasswordGate {
	return &PasswordGate{
		hash: hash,
		in:   bufio.NewReader(in),
		out:  out,
	}
}

// Authenticate prompts for the password, allowing MaxAttempts tries.
// Returns true when the password matches or no hash is configured.
func (g *PasswordGate) Authenticate(ctx context.Context) bool {
	if g.hash == "" {
		return true
	}
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return false
		}
		fmt.Fprint(g.out, "Password: ")
		line, err := g.in.ReadString('\n')
		if err != nil && line == "" {
			slog.Warn("password prompt failed", "error", err)
			return false
		}
		password := strings.TrimRight(line, "\r\n")
		if bcrypt.CompareHashAndPassword([]byte(g.hash), []byte(password)) == nil {
			return true
		}
		fmt.Fprintln(g.out, "Incorrect password.")
	}
	slog.Warn("exit denied after failed password attempts", "attempts", MaxAttempts)
	return false
}
