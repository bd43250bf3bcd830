// Package services defines the business logic for reservations, transports,
// devis, messaging, and profile aggregation. This file centralizes the typed
// error taxonomy returned by every service method so that callers can branch
// with errors.As / errors.Is instead of string matching.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer, never here.
package services

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports missing or malformed input. Fields always lists
// every offending field, not just the first one found.
type ValidationError struct {
	Fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

// NewValidationError builds a ValidationError for the given field names.
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// NotFoundError reports that a referenced record does not exist. It is
// distinct from an empty list, which is a success with zero items.
type NotFoundError struct {
	Kind string // "reservation", "transport", "devis", "conversation", ...
	ID   string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// InvalidTransitionError reports a status change that is not reachable from
// the record's current status. It carries the offending (from, to) pair and
// the entity kind for diagnostics.
type InvalidTransitionError struct {
	Kind string
	From string
	To   string
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Kind, e.From, e.To)
}

// StorageError wraps a failure of the storage layer (connectivity,
// constraint violation). It is not recoverable locally and is surfaced
// as-is; Unwrap exposes the underlying driver error.
type StorageError struct {
	Op  string // the failing operation, e.g. "create reservation"
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying storage driver error.
func (e *StorageError) Unwrap() error { return e.Err }

// wrapStorage decorates a non-nil repo error as a StorageError. Callers pass
// the operation name for the log line; nil errors pass through.
func wrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Sentinel errors shared across services.
var (
	// ErrEmptyContent is returned when a message is sent with no content.
	ErrEmptyContent = errors.New("message content is empty")

	// ErrTooLong is returned when a message exceeds the configured rune
	// limit.
	ErrTooLong = errors.New("message content too long")

	// ErrUnknownFormula is returned when an accompaniment request names a
	// formula id that is not in the catalogue.
	ErrUnknownFormula = errors.New("unknown accompaniment formula")
)
