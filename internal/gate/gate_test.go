package gate

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("open sesame")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))

	var out bytes.Buffer
	g := NewPasswordGate(hash, strings.NewReader("open sesame\n"), &out)
	assert.True(t, g.Authenticate(context.Background()))
	assert.Contains(t, out.String(), "Password: ")
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestAuthenticate_RetriesThenSucceeds(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)

	var out bytes.Buffer
	g := NewPasswordGate(hash, strings.NewReader("wrong\nsecret\n"), &out)
	assert.True(t, g.Authenticate(context.Background()))
	assert.Contains(t, out.String(), "Incorrect password.")
}

func TestAuthenticate_DeniesAfterMaxAttempts(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)

	var out bytes.Buffer
	g := NewPasswordGate(hash, strings.NewReader("a\nb\nc\nsecret\n"), &out)
	assert.False(t, g.Authenticate(context.Background()))
}

func TestAuthenticate_EmptyHashDisablesGate(t *testing.T) {
	g := NewPasswordGate("", strings.NewReader(""), &bytes.Buffer{})
	assert.True(t, g.Authenticate(context.Background()))
}

func TestAuthenticate_ClosedInput(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)

	g := NewPasswordGate(hash, strings.NewReader(""), &bytes.Buffer{})
	assert.False(t, g.Authenticate(context.Background()))
}

func TestAuthenticate_CancelledContext(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewPasswordGate(hash, strings.NewReader("secret\n"), &bytes.Buffer{})
	assert.False(t, g.Authenticate(ctx))
}
