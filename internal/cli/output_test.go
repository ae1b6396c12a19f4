package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitFailure, "export failed", cause)

	assert.Equal(t, "export failed: disk full", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))

	bare := NewExitError(ExitCommandError, "bad flag")
	assert.Equal(t, "bad flag", bare.Error())
	assert.Nil(t, errors.Unwrap(bare))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "x")))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("plain")))

	// Wrapped ExitErrors still surface their code.
	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitFailure, "inner"))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
}

func TestOutputFormatter_Text(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Success("done"))
	assert.Equal(t, "done\n", buf.String())

	buf.Reset()
	require.NoError(t, f.Error("E001", "it broke"))
	assert.Equal(t, "Error [E001]: it broke\n", buf.String())
}

func TestOutputFormatter_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success(map[string]int{"count": 3}))
	assert.JSONEq(t, `{"status":"ok","data":{"count":3}}`, buf.String())

	buf.Reset()
	require.NoError(t, f.Error("E001", "it broke"))
	assert.JSONEq(t, `{"status":"error","error":{"code":"E001","message":"it broke"}}`, buf.String())
}
