package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsError(t *testing.T) {
	assert.Nil(t, AsError(nil))

	typed := NewNotFoundError("Chat session not found")
	wrapped := fmt.Errorf("lookup: %w", typed)
	assert.Same(t, typed, AsError(wrapped))

	cause := errors.New("connection reset")
	internal := AsError(fmt.Errorf("failed to save: %w", cause))
	assert.Equal(t, ErrorKindInternal, internal.Kind)
	assert.Equal(t, "failed to save: connection reset", internal.Message)
	assert.ErrorIs(t, internal, cause)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKindValidation, KindOf(NewValidationError("bad")))
	assert.Equal(t, ErrorKindAuthorization, KindOf(fmt.Errorf("x: %w", NewAuthorizationError("no"))))
	assert.Equal(t, ErrorKindInternal, KindOf(errors.New("plain")))

	assert.False(t, IsKind(nil, ErrorKindInternal))
	assert.True(t, IsKind(errors.New("plain"), ErrorKindInternal))
	assert.Equal(t, "not-found: gone", NewNotFoundError("gone").String())
}
