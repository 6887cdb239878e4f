package web

import (
	"errors"

	"github.com/dukex/taskflow/pkg/persistence"
	"github.com/dukex/taskflow/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps service and persistence errors to problem documents.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())
	case errors.Is(err, persistence.ErrAutomationNotFound):
		return notFound(c, "automation_not_found", "automation not found")
	case errors.Is(err, persistence.ErrBoardNotFound):
		return notFound(c, "board_not_found", "board not found")
	case errors.Is(err, persistence.ErrColumnNotFound):
		return notFound(c, "column_not_found", "column not found")
	case errors.Is(err, persistence.ErrCardNotFound):
		return notFound(c, "card_not_found", "card not found")
	case errors.Is(err, persistence.ErrChecklistNotFound):
		return notFound(c, "checklist_not_found", "checklist not found")
	default:
		return internalError(c, err)
	}
}
