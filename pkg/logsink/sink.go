// Package logsink records automation execution attempts.
package logsink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/persistence"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

type Sink struct {
	logs   persistence.ExecutionLogRepository
	logger *slog.Logger
}

func New(logs persistence.ExecutionLogRepository, logger *slog.Logger) *Sink {
	return &Sink{
		logs:   logs,
		logger: logger.With("module", "log_sink"),
	}
}

// Record appends one execution log row. Failures are logged and never returned.
func (s *Sink) Record(ctx context.Context, automationID string, event *models.Event, result models.ExecutionResult, errMessage string) {
	entry := &models.ExecutionLog{
		AutomationID:    automationID,
		ExecutionResult: result,
	}

	// error_message is present only on error rows.
	if result == models.ExecutionError {
		entry.ErrorMessage = errMessage
		if entry.ErrorMessage == "" {
			entry.ErrorMessage = "unknown error"
		}
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to encode trigger data", "automation_id", automationID, "error", err)

		payload = []byte("{}")
	}

	entry.TriggerData = payload

	if err := s.logs.Append(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record execution log",
			"automation_id", automationID,
			"execution_result", result,
			"error", err)

		return
	}

	s.logger.DebugContext(ctx, "Execution recorded", "automation_id", automationID, "execution_result", result)
}

type Page struct {
	Entries []*models.ExecutionLog `json:"entries"`
	Total   int                    `json:"total"`
	Limit   int                    `json:"limit"`
	Offset  int                    `json:"offset"`
}

// Page returns the newest entries first. limit is clamped to [1, MaxPageSize]
// and defaults to DefaultPageSize; a negative offset is treated as zero.
func (s *Sink) Page(ctx context.Context, automationID string, limit, offset int) (*Page, error) {
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	offset = max(offset, 0)

	entries, err := s.logs.ListByAutomation(ctx, automationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list execution logs: %w", err)
	}

	total, err := s.logs.CountByAutomation(ctx, automationID)
	if err != nil {
		return nil, fmt.Errorf("failed to count execution logs: %w", err)
	}

	if entries == nil {
		entries = []*models.ExecutionLog{}
	}

	return &Page{Entries: entries, Total: total, Limit: limit, Offset: offset}, nil
}
