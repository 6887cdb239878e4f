// Package actions runs the ordered action list of an automation.
package actions

import (
	"errors"
	"fmt"

	"github.com/dukex/taskflow/pkg/models"
)

var (
	ErrActionPanicked = errors.New("action panicked")
	ErrNoCard         = errors.New("event has no card")
)

// UnknownActionError is reported for a single action whose kind has no handler.
type UnknownActionError struct {
	Type models.ActionType
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action type '%s'", e.Type)
}

func IsUnknownActionError(err error) bool {
	var target *UnknownActionError

	return errors.As(err, &target)
}
