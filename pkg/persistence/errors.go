// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrAutomationNotFound indicates an automation was not found by the given identifier.
	ErrAutomationNotFound = errors.New("automation not found")

	// ErrBoardNotFound indicates a board was not found by the given identifier.
	ErrBoardNotFound = errors.New("board not found")

	// ErrColumnNotFound indicates a column was not found by the given identifier.
	ErrColumnNotFound = errors.New("column not found")

	// ErrCardNotFound indicates a card was not found by the given identifier.
	ErrCardNotFound = errors.New("card not found")

	// ErrChecklistNotFound indicates a checklist was not found by the given identifier.
	ErrChecklistNotFound = errors.New("checklist not found")

	// ErrBoardMismatch indicates a column or card belongs to a different board.
	ErrBoardMismatch = errors.New("entity belongs to a different board")
)

// RepositoryError wraps repository errors with the operation and entity involved.
type RepositoryError struct {
	Op     string // Operation being performed (e.g., "GetByID", "Update", "Delete")
	Entity string
	ID     string
	Err    error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for repository errors.
func (e *RepositoryError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func NewRepositoryError(op, entity, id string, err error) *RepositoryError {
	return &RepositoryError{
		Op:     op,
		Entity: entity,
		ID:     id,
		Err:    err,
	}
}

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAutomationNotFound) ||
		errors.Is(err, ErrBoardNotFound) ||
		errors.Is(err, ErrColumnNotFound) ||
		errors.Is(err, ErrCardNotFound) ||
		errors.Is(err, ErrChecklistNotFound)
}

func IsAutomationNotFound(err error) bool {
	return errors.Is(err, ErrAutomationNotFound)
}

func IsCardNotFound(err error) bool {
	return errors.Is(err, ErrCardNotFound)
}
