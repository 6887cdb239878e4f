// Package scheduler fires due_date_approaching triggers on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
)

const DefaultInterval = 60 * time.Second

// DefaultHorizons are the days-until-due values that fire a trigger.
var DefaultHorizons = []int{0, 1, 3, 7}

type Dispatcher interface {
	Dispatch(ctx context.Context, boardID string, triggerType models.TriggerType, event *models.Event) ([]models.ExecutionOutcome, error)
}

type CardSource interface {
	ListDueCards(ctx context.Context, from, to time.Time) ([]*models.Card, error)
}

type Option func(*Scheduler)

func WithClock(clock clockwork.Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

func WithInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithDeduper suppresses repeated triggers for the same card, horizon and day.
func WithDeduper(deduper Deduper) Option {
	return func(s *Scheduler) {
		s.deduper = deduper
	}
}

type Scheduler struct {
	cards      CardSource
	dispatcher Dispatcher
	clock      clockwork.Clock
	deduper    Deduper
	interval   time.Duration
	horizons   []int
	logger     *slog.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

func New(cards CardSource, dispatcher Dispatcher, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		cards:      cards,
		dispatcher: dispatcher,
		clock:      clockwork.NewRealClock(),
		interval:   DefaultInterval,
		horizons:   DefaultHorizons,
		logger:     logger.With("module", "scheduler"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start schedules Tick every interval. Calling Start on a running scheduler
// is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return nil
	}

	logger := &cronLogger{logger: s.logger}
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(logger),
		cron.Recover(logger),
	))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	_, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.Tick(runCtx)
	})
	if err != nil {
		cancel()

		return fmt.Errorf("failed to schedule due date scan: %w", err)
	}

	c.Start()

	s.cron = c
	s.cancel = cancel

	s.logger.InfoContext(ctx, "Scheduler started", "interval", s.interval.String())

	return nil
}

// Stop cancels the running scan, waits for it to return and removes the
// schedule. Calling Stop on a stopped scheduler is a no-op.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}

	s.cancel()
	<-s.cron.Stop().Done()

	s.cron = nil
	s.cancel = nil

	s.logger.Info("Scheduler stopped")

	return nil
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cron != nil
}

// Tick scans incomplete cards with a due date and dispatches a
// due_date_approaching event for each card whose calendar-day distance to its
// due date is one of the horizons. It returns the number of events dispatched.
func (s *Scheduler) Tick(ctx context.Context) int {
	if len(s.horizons) == 0 {
		return 0
	}

	now := s.clock.Now().UTC()
	today := startOfDay(now)
	until := today.AddDate(0, 0, slices.Max(s.horizons)+1)

	cards, err := s.cards.ListDueCards(ctx, today, until)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list due cards", "error", err)

		return 0
	}

	dispatched := 0

	for _, card := range cards {
		if ctx.Err() != nil {
			return dispatched
		}

		if card.DueDate == nil || card.Completed {
			continue
		}

		days := DaysUntil(today, *card.DueDate)
		if !slices.Contains(s.horizons, days) {
			continue
		}

		if !s.claim(ctx, card, days, today) {
			continue
		}

		event := &models.Event{
			TriggerType:  models.TriggerDueDateApproaching,
			BoardID:      card.BoardID,
			Card:         card,
			DaysUntilDue: &days,
			OccurredAt:   now,
		}

		_, err := s.dispatcher.Dispatch(ctx, card.BoardID, models.TriggerDueDateApproaching, event)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to dispatch due date trigger",
				"card_id", card.ID,
				"board_id", card.BoardID,
				"days_until_due", days,
				"error", err)

			continue
		}

		dispatched++
	}

	s.logger.DebugContext(ctx, "Due date scan finished", "cards", len(cards), "dispatched", dispatched)

	return dispatched
}

func (s *Scheduler) claim(ctx context.Context, card *models.Card, days int, today time.Time) bool {
	if s.deduper == nil {
		return true
	}

	key := fmt.Sprintf("%s:%d:%s", card.ID, days, today.Format(time.DateOnly))

	first, err := s.deduper.Claim(ctx, key, 24*time.Hour)
	if err != nil {
		s.logger.WarnContext(ctx, "Deduper unavailable, firing anyway", "card_id", card.ID, "error", err)

		return true
	}

	return first
}

// DaysUntil returns the whole number of UTC calendar days from today to due.
func DaysUntil(today, due time.Time) int {
	return int(startOfDay(due.UTC()).Sub(startOfDay(today.UTC())).Hours() / 24)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type cronLogger struct {
	logger *slog.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
