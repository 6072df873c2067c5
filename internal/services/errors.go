// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ValidationError reports malformed input. Nothing has been written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

type NotFoundError struct {
	Resource string
	ID       interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

// InsufficientStockError aborts a sale that would drive stock negative.
type InsufficientStockError struct {
	VariantID uint
	Label     string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (variant %d): requested %d, available %d",
		e.Label, e.VariantID, e.Requested, e.Available)
}

type UniquenessViolation struct {
	Field string
	Value string
}

func (e *UniquenessViolation) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Field, e.Value)
}

// ConflictError is returned when an operation would break an ownership rule.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// PersistenceError wraps an underlying store failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// classifyError turns a store error into one of the domain error kinds.
// Errors that already carry a kind pass through.
func classifyError(op string, err error, unique *UniquenessViolation) error {
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	if unique != nil && isDuplicateKey(err) {
		return unique
	}
	return &PersistenceError{Op: op, Err: err}
}

func isDomainError(err error) bool {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		stockErr      *InsufficientStockError
		uniqueErr     *UniquenessViolation
		conflictErr   *ConflictError
		persistErr    *PersistenceError
	)
	return errors.As(err, &validationErr) ||
		errors.As(err, &notFoundErr) ||
		errors.As(err, &stockErr) ||
		errors.As(err, &uniqueErr) ||
		errors.As(err, &conflictErr) ||
		errors.As(err, &persistErr)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func notFoundOr(op, resource string, id interface{}, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return &PersistenceError{Op: op, Err: err}
}
