package models

import (
	"encoding/json"
	"time"
)

type ExecutionResult string

const (
	ExecutionSuccess     ExecutionResult = "success"
	ExecutionError       ExecutionResult = "error"
	ExecutionTestSuccess ExecutionResult = "test_success"
	ExecutionSkipped     ExecutionResult = "skipped"
)

const (
	ReasonConditionsNotMet = "conditions_not_met"

	// Only reported by test runs; live dispatch never considers such rules.
	ReasonTriggerConfigMismatch = "trigger_config_mismatch"
)

// ExecutionLog is one append-only row per dispatch attempt.
type ExecutionLog struct {
	ID              string          `json:"id"`
	AutomationID    string          `json:"automation_id"`
	TriggerData     json.RawMessage `json:"trigger_data"`
	ExecutionResult ExecutionResult `json:"execution_result"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	ExecutedAt      time.Time       `json:"executed_at"`
}

type ActionStatus string

const (
	ActionStatusSuccess   ActionStatus = "success"
	ActionStatusError     ActionStatus = "error"
	ActionStatusSimulated ActionStatus = "simulated"
)

type ActionResult struct {
	Type   ActionType   `json:"type"`
	Result ActionStatus `json:"result"`
	Output any          `json:"output,omitempty"`
	Error  string       `json:"error,omitempty"`
}

func (r ActionResult) Failed() bool {
	return r.Result == ActionStatusError
}

// ExecutionOutcome is what a single rule produced for a single event.
type ExecutionOutcome struct {
	AutomationID   string          `json:"automation_id"`
	AutomationName string          `json:"automation_name"`
	Executed       bool            `json:"executed"`
	Skipped        bool            `json:"skipped,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	Result         ExecutionResult `json:"result"`
	ActionResults  []ActionResult  `json:"action_results,omitempty"`
	Error          string          `json:"error,omitempty"`
}
