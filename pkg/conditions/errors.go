package conditions

import (
	"errors"
	"fmt"

	"github.com/dukex/taskflow/pkg/models"
)

var (
	ErrUnknownCondition = errors.New("unknown condition type")
	ErrInvalidCondition = errors.New("invalid condition config")
	ErrNonBooleanCEL    = errors.New("expression does not evaluate to a boolean")
)

// ConditionEvaluationError describes why a condition failed closed.
type ConditionEvaluationError struct {
	Type  models.ConditionType
	Index int
	Err   error
}

func (e *ConditionEvaluationError) Error() string {
	return fmt.Sprintf("condition %d (%s): %v", e.Index, e.Type, e.Err)
}

func (e *ConditionEvaluationError) Unwrap() error {
	return e.Err
}
