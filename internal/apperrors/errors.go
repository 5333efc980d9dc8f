// Package apperrors defines the failure taxonomy shared by services and
// repositories. Handlers map these to HTTP statuses in one place; nothing
// below the handler layer knows about status codes.
package apperrors

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ValidationError: malformed or out-of-range input, identified by field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError: a referenced entity does not exist.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func NotFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

// ForbiddenError: role or ownership insufficient for the operation.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

func Forbidden(message string) error {
	return &ForbiddenError{Message: message}
}

// ConflictError: the operation contradicts current state (duplicate
// membership, already processed, insufficient balance, capacity reached).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func Conflict(message string) error {
	return &ConflictError{Message: message}
}

// InsufficientBalance is the conflict raised when a debit would exceed the
// authoritative balance read inside the atomic unit.
func InsufficientBalance() error {
	return &ConflictError{Message: "insufficient points balance"}
}

// StoreError wraps an underlying persistence fault. Handlers log it and
// report a generic message, never the wrapped detail.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string { return "store error: " + e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }

func Store(err error) error {
	return &StoreError{Err: err}
}

// FromGorm translates a gorm lookup error: record-not-found becomes a
// NotFoundError for the named entity, anything else a StoreError.
func FromGorm(entity string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(entity)
	}
	return Store(err)
}

// IsDuplicate reports whether err is the store's unique-constraint
// violation (used for utorid/email uniqueness and one-time usage rows).
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
