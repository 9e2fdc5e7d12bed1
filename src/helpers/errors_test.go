package helpers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// -----------------------------------------------------------------------------

func TestErrorPredicatesMatchTheirKind(t *testing.T) {
	authErr := NewAuthenticationFailed("bad credentials", nil)
	credErr := NewInvalidCredential("expired", nil)
	backendErr := NewBackendUnavailable("down", nil)
	dataErr := NewDataUnavailable("no price", nil)

	assert.True(t, IsAuthenticationFailed(authErr))
	assert.False(t, IsAuthenticationFailed(credErr))

	assert.True(t, IsInvalidCredential(credErr))
	assert.False(t, IsInvalidCredential(backendErr))

	assert.True(t, IsBackendUnavailable(backendErr))
	assert.True(t, IsDataUnavailable(dataErr))
	assert.False(t, IsDataUnavailable(errors.New("plain")))
}

// -----------------------------------------------------------------------------

func TestErrorsSurviveWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("loading holdings: %w", NewBackendUnavailable("exchange unreachable", cause))

	assert.True(t, IsBackendUnavailable(err))
	assert.ErrorIs(t, err, cause)
}
