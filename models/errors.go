// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSurveyClosed is returned when a respondent tries to change answers on a
// survey that is outside its answering window.
var ErrSurveyClosed = errors.New("survey is not open for answering")

// ValidationError lists every problem found in a write. Nothing is stored.
type ValidationError struct {
	Problems []string
}

func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// NotFoundError reports a missing survey or question.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// PersistenceError wraps a store failure. The operation was rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// MalformedDataError describes a stored field that failed to decode and was
// read back as opaque text instead.
type MalformedDataError struct {
	Field string
	RowID string
	Value string
	Err   error
}

func (e *MalformedDataError) Error() string {
	return fmt.Sprintf("malformed %s in %s: %v", e.Field, e.RowID, e.Err)
}

func (e *MalformedDataError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
