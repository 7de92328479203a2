package library

import (
	"errors"
	"fmt"
)

// Error categories. Stores and services wrap these so callers can branch
// with errors.Is regardless of the backend.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrValidation = errors.New("validation failed")
	// ErrInvalidReference marks a child write whose parent does not exist.
	// It is a validation failure.
	ErrInvalidReference = fmt.Errorf("%w: invalid reference", ErrValidation)
	// ErrStaleVersion is returned by ProgressStore.SaveProgress when the
	// stored version moved since the record was read.
	ErrStaleVersion = errors.New("stale version")
)

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string
	ID       string
	Scope    string // optional container, e.g. "user progress"
}

func (e *NotFoundError) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("%s not found in %s", e.Resource, e.Scope)
	}
	return e.Resource + " not found"
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError reports an identifier that is already taken.
type ConflictError struct {
	Resource string
	ID       string
}

func (e *ConflictError) Error() string {
	return e.Resource + " already exists"
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
	Ref     bool // the field references a parent that does not exist
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	if e.Ref {
		return ErrInvalidReference
	}
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// InvalidReference builds the error stores return when a parent is missing.
func InvalidReference(field string) error {
	return &ValidationError{Field: field, Message: "Invalid " + field, Ref: true}
}

// NotFound builds the error stores return for a missing resource.
func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// Conflict builds the error stores return for a duplicate identifier.
func Conflict(resource, id string) error {
	return &ConflictError{Resource: resource, ID: id}
}

// ErrNoFields is returned by patch operations without any allowed field.
var ErrNoFields = &ValidationError{Message: "No valid fields provided for update"}
