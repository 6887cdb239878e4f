package sqlbase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/persistence"
	"github.com/google/uuid"
)

const cardColumns = `
	id
  , board_id
  , column_id
  , title
  , description
  , priority
  , position
  , due_date
  , completed
  , assignee_id
  , created_at
  , updated_at
`

// CardRepository handles boards, columns, cards and checklists.
type CardRepository struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

func NewCardRepository(db *sql.DB, dialect Dialect, logger *slog.Logger) *CardRepository {
	return &CardRepository{db: db, dialect: dialect, logger: logger}
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate ID: %w", err)
	}

	return id.String(), nil
}

func (r *CardRepository) CreateBoard(ctx context.Context, board *models.Board) error {
	if board.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}

		board.ID = id
	}

	if board.CreatedAt.IsZero() {
		board.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		r.dialect.Rebind(`INSERT INTO boards (id, name, created_at) VALUES (?, ?, ?)`),
		board.ID, board.Name, board.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert board: %w", err)
	}

	return nil
}

func (r *CardRepository) GetBoard(ctx context.Context, id string) (*models.Board, error) {
	var board models.Board

	err := r.db.QueryRowContext(ctx,
		r.dialect.Rebind(`SELECT id, name, created_at FROM boards WHERE id = ?`), id,
	).Scan(&board.ID, &board.Name, &board.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRepositoryError("GetBoard", "board", id, persistence.ErrBoardNotFound)
		}

		return nil, fmt.Errorf("failed to scan board: %w", err)
	}

	board.CreatedAt = board.CreatedAt.UTC()

	return &board, nil
}

func (r *CardRepository) CreateColumn(ctx context.Context, column *models.Column) error {
	if column.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}

		column.ID = id
	}

	_, err := r.db.ExecContext(ctx,
		r.dialect.Rebind(`INSERT INTO board_columns (id, board_id, name, position) VALUES (?, ?, ?, ?)`),
		column.ID, column.BoardID, column.Name, column.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to insert column: %w", err)
	}

	return nil
}

func (r *CardRepository) GetColumn(ctx context.Context, id string) (*models.Column, error) {
	var column models.Column

	err := r.db.QueryRowContext(ctx,
		r.dialect.Rebind(`SELECT id, board_id, name, position FROM board_columns WHERE id = ?`), id,
	).Scan(&column.ID, &column.BoardID, &column.Name, &column.Position)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRepositoryError("GetColumn", "column", id, persistence.ErrColumnNotFound)
		}

		return nil, fmt.Errorf("failed to scan column: %w", err)
	}

	return &column, nil
}

func (r *CardRepository) CreateCard(ctx context.Context, card *models.Card) error {
	if card.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}

		card.ID = id
	}

	now := time.Now().UTC()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}

	if card.UpdatedAt.IsZero() {
		card.UpdatedAt = now
	}

	if card.Priority == "" {
		card.Priority = models.PriorityMedium
	}

	query := `INSERT INTO cards (` + cardColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		card.ID,
		card.BoardID,
		card.ColumnID,
		card.Title,
		card.Description,
		string(card.Priority),
		card.Position,
		nullTime(card.DueDate),
		card.Completed,
		card.AssigneeID,
		card.CreatedAt.UTC(),
		card.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert card: %w", err)
	}

	return nil
}

func (r *CardRepository) GetCard(ctx context.Context, id string) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = ?`

	card, err := scanCard(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRepositoryError("GetCard", "card", id, persistence.ErrCardNotFound)
		}

		return nil, fmt.Errorf("failed to scan card: %w", err)
	}

	return card, nil
}

func (r *CardRepository) UpdateCard(ctx context.Context, card *models.Card) error {
	query := `
		UPDATE cards
		SET column_id = ?
		  , title = ?
		  , description = ?
		  , priority = ?
		  , position = ?
		  , due_date = ?
		  , completed = ?
		  , assignee_id = ?
		  , updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		card.ColumnID,
		card.Title,
		card.Description,
		string(card.Priority),
		card.Position,
		nullTime(card.DueDate),
		card.Completed,
		card.AssigneeID,
		card.UpdatedAt.UTC(),
		card.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}

	return requireAffected(result, persistence.NewRepositoryError("UpdateCard", "card", card.ID, persistence.ErrCardNotFound))
}

func (r *CardRepository) CountCardsInColumn(ctx context.Context, columnID string) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx,
		r.dialect.Rebind(`SELECT COUNT(*) FROM cards WHERE column_id = ?`), columnID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}

	return count, nil
}

func (r *CardRepository) ListDueCards(ctx context.Context, from, to time.Time) ([]*models.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE completed = ? AND due_date >= ? AND due_date < ?
		ORDER BY due_date ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), false, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query due cards: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	cards := make([]*models.Card, 0)

	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}

		cards = append(cards, card)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating due cards: %w", err)
	}

	return cards, nil
}

func (r *CardRepository) CreateChecklist(ctx context.Context, checklist *models.Checklist) error {
	if checklist.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}

		checklist.ID = id
	}

	_, err := r.db.ExecContext(ctx,
		r.dialect.Rebind(`INSERT INTO checklists (id, card_id, title, completed, completed_at) VALUES (?, ?, ?, ?, ?)`),
		checklist.ID, checklist.CardID, checklist.Title, checklist.Completed, nullTime(checklist.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert checklist: %w", err)
	}

	return nil
}

func (r *CardRepository) GetChecklist(ctx context.Context, id string) (*models.Checklist, error) {
	var (
		checklist   models.Checklist
		completedAt sql.NullTime
	)

	err := r.db.QueryRowContext(ctx,
		r.dialect.Rebind(`SELECT id, card_id, title, completed, completed_at FROM checklists WHERE id = ?`), id,
	).Scan(&checklist.ID, &checklist.CardID, &checklist.Title, &checklist.Completed, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRepositoryError("GetChecklist", "checklist", id, persistence.ErrChecklistNotFound)
		}

		return nil, fmt.Errorf("failed to scan checklist: %w", err)
	}

	checklist.CompletedAt = timePtr(completedAt)

	return &checklist, nil
}

func (r *CardRepository) CompleteChecklist(ctx context.Context, id string, at time.Time) (*models.Checklist, error) {
	result, err := r.db.ExecContext(ctx,
		r.dialect.Rebind(`UPDATE checklists SET completed = ?, completed_at = ? WHERE id = ?`),
		true, at.UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to complete checklist: %w", err)
	}

	err = requireAffected(result, persistence.NewRepositoryError("CompleteChecklist", "checklist", id, persistence.ErrChecklistNotFound))
	if err != nil {
		return nil, err
	}

	return r.GetChecklist(ctx, id)
}

func scanCard(row scanner) (*models.Card, error) {
	var (
		card     models.Card
		priority string
		dueDate  sql.NullTime
	)

	err := row.Scan(
		&card.ID,
		&card.BoardID,
		&card.ColumnID,
		&card.Title,
		&card.Description,
		&priority,
		&card.Position,
		&dueDate,
		&card.Completed,
		&card.AssigneeID,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.Priority = models.Priority(priority)
	card.DueDate = timePtr(dueDate)
	card.CreatedAt = card.CreatedAt.UTC()
	card.UpdatedAt = card.UpdatedAt.UTC()

	return &card, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}

	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}

	v := t.Time.UTC()

	return &v
}
