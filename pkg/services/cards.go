package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/persistence"
)

// CreateCardRequest holds the fields of a new card.
type CreateCardRequest struct {
	BoardID     string
	ColumnID    string
	Title       string
	Description string
	Priority    models.Priority
	DueDate     *time.Time
	AssigneeID  string
}

// UpdateCardRequest is a partial card update keyed by field name. Values use
// the JSON representation accepted by models.Card.SetField.
type UpdateCardRequest map[string]any

// Cards is the card-mutation layer. It does not fire automation hooks itself;
// callers decide which mutations are user-originated.
type Cards struct {
	persistence persistence.Persistence
	logger      *slog.Logger
}

func NewCards(p persistence.Persistence, logger *slog.Logger) *Cards {
	return &Cards{
		persistence: p,
		logger:      logger.With("module", "card_service"),
	}
}

func (s *Cards) CreateBoard(ctx context.Context, name string) (*models.Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("CreateBoard", "NAME_REQUIRED", "name is required", ErrNameRequired)
	}

	board := &models.Board{Name: name}
	if err := s.persistence.Cards().CreateBoard(ctx, board); err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	return board, nil
}

func (s *Cards) CreateColumn(ctx context.Context, boardID, name string, position int) (*models.Column, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("CreateColumn", "NAME_REQUIRED", "name is required", ErrNameRequired)
	}

	if _, err := s.persistence.Cards().GetBoard(ctx, boardID); err != nil {
		return nil, err
	}

	column := &models.Column{BoardID: boardID, Name: name, Position: position}
	if err := s.persistence.Cards().CreateColumn(ctx, column); err != nil {
		return nil, fmt.Errorf("failed to create column: %w", err)
	}

	return column, nil
}

func (s *Cards) CreateCard(ctx context.Context, req CreateCardRequest) (*models.Card, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, NewValidationError("CreateCard", "TITLE_REQUIRED", "title is required", ErrInvalidRequest)
	}

	if req.ColumnID == "" {
		return nil, NewValidationError("CreateCard", "COLUMN_REQUIRED", "column_id is required", ErrInvalidRequest)
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	if !priority.IsValid() {
		return nil, NewValidationError("CreateCard", "INVALID_PRIORITY",
			fmt.Sprintf("invalid priority '%s'", priority), ErrInvalidCardField)
	}

	if _, err := s.persistence.Cards().GetBoard(ctx, req.BoardID); err != nil {
		return nil, err
	}

	if err := s.columnOnBoard(ctx, "CreateCard", req.BoardID, req.ColumnID); err != nil {
		return nil, err
	}

	position, err := s.persistence.Cards().CountCardsInColumn(ctx, req.ColumnID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute card position: %w", err)
	}

	card := &models.Card{
		BoardID:     req.BoardID,
		ColumnID:    req.ColumnID,
		Title:       title,
		Description: req.Description,
		Priority:    priority,
		Position:    position,
		DueDate:     req.DueDate,
		AssigneeID:  req.AssigneeID,
	}

	if err := s.persistence.Cards().CreateCard(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	return card, nil
}

func (s *Cards) GetCard(ctx context.Context, id string) (*models.Card, error) {
	return s.persistence.Cards().GetCard(ctx, id)
}

// UpdateCard applies the patch and returns the card before and after it.
func (s *Cards) UpdateCard(ctx context.Context, id string, req UpdateCardRequest) (*models.Card, *models.Card, error) {
	before, err := s.persistence.Cards().GetCard(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	after := before.Clone()

	for field, value := range req {
		if err := after.SetField(field, value); err != nil {
			return nil, nil, NewValidationError("UpdateCard", "INVALID_CARD_FIELD", err.Error(), ErrInvalidCardField)
		}
	}

	if err := s.save(ctx, after); err != nil {
		return nil, nil, err
	}

	return before, after, nil
}

// Move places the card in columnID and returns the card before and after.
// A nil position appends the card to the end of the column.
func (s *Cards) Move(ctx context.Context, cardID, columnID string, position *int) (*models.Card, *models.Card, error) {
	before, err := s.persistence.Cards().GetCard(ctx, cardID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.columnOnBoard(ctx, "Move", before.BoardID, columnID); err != nil {
		return nil, nil, err
	}

	after := before.Clone()
	after.ColumnID = columnID

	switch {
	case position != nil:
		after.Position = max(*position, 0)
	case columnID != before.ColumnID:
		count, err := s.persistence.Cards().CountCardsInColumn(ctx, columnID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to compute card position: %w", err)
		}

		after.Position = count
	}

	if err := s.save(ctx, after); err != nil {
		return nil, nil, err
	}

	return before, after, nil
}

// Complete marks the card as completed. The second return value reports
// whether the card changed state.
func (s *Cards) Complete(ctx context.Context, cardID string) (*models.Card, bool, error) {
	card, err := s.persistence.Cards().GetCard(ctx, cardID)
	if err != nil {
		return nil, false, err
	}

	if card.Completed {
		return card, false, nil
	}

	card.Completed = true

	if err := s.save(ctx, card); err != nil {
		return nil, false, err
	}

	return card, true, nil
}

func (s *Cards) CreateChecklist(ctx context.Context, cardID, title string) (*models.Checklist, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, NewValidationError("CreateChecklist", "TITLE_REQUIRED", "title is required", ErrInvalidRequest)
	}

	if _, err := s.persistence.Cards().GetCard(ctx, cardID); err != nil {
		return nil, err
	}

	checklist := &models.Checklist{CardID: cardID, Title: title}
	if err := s.persistence.Cards().CreateChecklist(ctx, checklist); err != nil {
		return nil, fmt.Errorf("failed to create checklist: %w", err)
	}

	return checklist, nil
}

// CompleteChecklist completes a checklist of the card. The bool reports
// whether the checklist changed state.
func (s *Cards) CompleteChecklist(ctx context.Context, cardID, checklistID string) (*models.Card, *models.Checklist, bool, error) {
	card, err := s.persistence.Cards().GetCard(ctx, cardID)
	if err != nil {
		return nil, nil, false, err
	}

	checklist, err := s.persistence.Cards().GetChecklist(ctx, checklistID)
	if err != nil {
		return nil, nil, false, err
	}

	if checklist.CardID != card.ID {
		return nil, nil, false, persistence.NewRepositoryError("CompleteChecklist", "checklist", checklistID, persistence.ErrChecklistNotFound)
	}

	if checklist.Completed {
		return card, checklist, false, nil
	}

	checklist, err = s.persistence.Cards().CompleteChecklist(ctx, checklistID, time.Now().UTC())
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to complete checklist: %w", err)
	}

	return card, checklist, true, nil
}

func (s *Cards) ListNotifications(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewValidationError("ListNotifications", "USER_REQUIRED", "user_id is required", ErrInvalidRequest)
	}

	notifications, err := s.persistence.Notifications().ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, nil
}

// MoveCard implements protocol.CardMutator for the move_card action.
func (s *Cards) MoveCard(ctx context.Context, cardID, columnID string, position *int) (*models.Card, error) {
	_, after, err := s.Move(ctx, cardID, columnID, position)

	return after, err
}

// UpdateCardField implements protocol.CardMutator for the update_field action.
func (s *Cards) UpdateCardField(ctx context.Context, cardID, field string, value any) (*models.Card, error) {
	_, after, err := s.UpdateCard(ctx, cardID, UpdateCardRequest{field: value})

	return after, err
}

func (s *Cards) save(ctx context.Context, card *models.Card) error {
	card.UpdatedAt = time.Now().UTC()

	if err := s.persistence.Cards().UpdateCard(ctx, card); err != nil {
		if errors.Is(err, persistence.ErrCardNotFound) {
			return err
		}

		return fmt.Errorf("failed to save card: %w", err)
	}

	return nil
}

func (s *Cards) columnOnBoard(ctx context.Context, op, boardID, columnID string) error {
	column, err := s.persistence.Cards().GetColumn(ctx, columnID)
	if err != nil {
		return err
	}

	if column.BoardID != boardID {
		return NewValidationError(op, "COLUMN_ON_ANOTHER_BOARD",
			fmt.Sprintf("column %s does not belong to board %s", columnID, boardID), ErrColumnOnAnotherBoard)
	}

	return nil
}
