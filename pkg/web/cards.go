package web

import (
	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/services"
	"github.com/gofiber/fiber/v3"
)

// Card endpoints fire the card hooks after a successful mutation. Mutations
// made by automation actions go through services.Cards directly and never
// reach these handlers.

func (h *APIHandlers) CreateBoard(c fiber.Ctx) error {
	var req CreateBoardRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	board, err := h.cardService.CreateBoard(c.Context(), req.Name)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(board)
}

func (h *APIHandlers) CreateColumn(c fiber.Ctx) error {
	var req CreateColumnRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	column, err := h.cardService.CreateColumn(c.Context(), c.Params("boardId"), req.Name, req.Position)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(column)
}

func (h *APIHandlers) CreateCard(c fiber.Ctx) error {
	var req CreateCardRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	create := services.CreateCardRequest{
		BoardID:     c.Params("boardId"),
		ColumnID:    req.ColumnID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.Priority(req.Priority),
		AssigneeID:  req.AssigneeID,
	}

	if req.DueDate != nil {
		due, err := models.ParseDueDate(*req.DueDate)
		if err != nil {
			return badRequest(c, err.Error())
		}

		create.DueDate = &due
	}

	card, err := h.cardService.CreateCard(c.Context(), create)
	if err != nil {
		return handleServiceError(c, err)
	}

	h.hooks.OnCardCreated(c.Context(), card, card.BoardID)

	return c.Status(fiber.StatusCreated).JSON(card)
}

func (h *APIHandlers) GetCard(c fiber.Ctx) error {
	card, err := h.cardService.GetCard(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(card)
}

// UpdateCard applies a partial update keyed by field name.
func (h *APIHandlers) UpdateCard(c fiber.Ctx) error {
	var req services.UpdateCardRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	before, after, err := h.cardService.UpdateCard(c.Context(), c.Params("id"), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	h.hooks.OnCardUpdated(c.Context(), before, after, after.BoardID)

	if !before.Completed && after.Completed {
		h.hooks.OnCardCompleted(c.Context(), after, after.BoardID)
	}

	return c.JSON(after)
}

func (h *APIHandlers) MoveCard(c fiber.Ctx) error {
	var req MoveCardRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	before, after, err := h.cardService.Move(c.Context(), c.Params("id"), req.ColumnID, req.Position)
	if err != nil {
		return handleServiceError(c, err)
	}

	if before.ColumnID != after.ColumnID {
		h.hooks.OnCardMoved(c.Context(), after, before.ColumnID, after.ColumnID, after.BoardID)
	}

	return c.JSON(after)
}

func (h *APIHandlers) CompleteCard(c fiber.Ctx) error {
	card, changed, err := h.cardService.Complete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	if changed {
		h.hooks.OnCardCompleted(c.Context(), card, card.BoardID)
	}

	return c.JSON(card)
}

func (h *APIHandlers) CreateChecklist(c fiber.Ctx) error {
	var req CreateChecklistRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	checklist, err := h.cardService.CreateChecklist(c.Context(), c.Params("id"), req.Title)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(checklist)
}

func (h *APIHandlers) CompleteChecklist(c fiber.Ctx) error {
	card, checklist, changed, err := h.cardService.CompleteChecklist(c.Context(), c.Params("id"), c.Params("checklistId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	if changed {
		h.hooks.OnChecklistCompleted(c.Context(), card, checklist, card.BoardID)
	}

	return c.JSON(checklist)
}
