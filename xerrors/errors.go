// xerrors/errors.go
package xerrors

import (
	"errors"
	"sort"
	"strings"
)

// Error kinds surfaced by the API layer. Lower layers wrap these with %w so
// handlers can classify with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrUpstreamUnavailable = errors.New("external data source unavailable")
	ErrValidation          = errors.New("validation failed")
	ErrRefreshInProgress   = errors.New("refresh already in progress")
)

// ValidationError carries field-level detail for a rejected write or query.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Add records another field failure and returns the receiver for chaining.
func (e *ValidationError) Add(field, msg string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// UpstreamError describes a failed call to one of the external data sources.
type UpstreamError struct {
	Source string
	Err    error
}

func (e *UpstreamError) Error() string {
	return "could not fetch data from " + e.Source + ": " + e.Err.Error()
}

// Is lets errors.Is(err, ErrUpstreamUnavailable) match any UpstreamError.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
