package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

type Violation struct {
	Property string `json:"property"`
	Message  string `json:"message"`
}

// ValidationError carries field-level violations of a submitted form.
type ValidationError struct {
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Property+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(property, message string) {
	e.Violations = append(e.Violations, Violation{Property: property, Message: message})
}

func (e *ValidationError) Has(property string) bool {
	for _, v := range e.Violations {
		if v.Property == property {
			return true
		}
	}
	return false
}

// Err returns nil when no violation was recorded.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Violations) == 0 {
		return nil
	}
	return e
}
