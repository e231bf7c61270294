package xerrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("name", "is required").Add("population", "must not be negative")

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "validation failed: name: is required, population: must not be negative", err.Error())

	var ve *ValidationError
	wrapped := fmt.Errorf("saving country: %w", err)
	if assert.True(t, errors.As(wrapped, &ve)) {
		assert.Len(t, ve.Fields, 2)
	}
}

func TestUpstreamError(t *testing.T) {
	err := fmt.Errorf("refresh: %w", &UpstreamError{Source: "rates API", Err: context.DeadlineExceeded})

	assert.True(t, errors.Is(err, ErrUpstreamUnavailable))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "could not fetch data from rates API")
}
