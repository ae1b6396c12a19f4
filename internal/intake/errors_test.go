package intake

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionError_Classification(t *testing.T) {
	cfg := newConfigurationError("no registry")
	src := newSourceError("capture device lost", errors.New("usb disconnect"))

	assert.True(t, IsConfigurationError(cfg))
	assert.False(t, IsSourceError(cfg))
	assert.True(t, IsSourceError(src))
	assert.False(t, IsConfigurationError(src))

	// Wrapped errors are still classified.
	wrapped := fmt.Errorf("session start: %w", cfg)
	assert.True(t, IsConfigurationError(wrapped))

	assert.False(t, IsConfigurationError(errors.New("plain")))
	assert.False(t, IsSourceError(nil))
}

func TestSessionError_MessageIncludesCause(t *testing.T) {
	err := newSourceError("capture device lost", errors.New("usb disconnect"))
	assert.Equal(t, "SOURCE_FAILED: capture device lost: usb disconnect", err.Error())
	assert.Equal(t, "usb disconnect", errors.Unwrap(err).Error())

	bare := newConfigurationError("no decode source")
	assert.Equal(t, "CONFIGURATION_ERROR: no decode source", bare.Error())
}
