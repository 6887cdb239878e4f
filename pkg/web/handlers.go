// Package web provides HTTP handlers and REST API endpoints for board automations.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/taskflow/pkg/conditions"
	"github.com/dukex/taskflow/pkg/dispatcher"
	"github.com/dukex/taskflow/pkg/hooks"
	"github.com/dukex/taskflow/pkg/logsink"
	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/persistence"
	"github.com/dukex/taskflow/pkg/registry"
	"github.com/dukex/taskflow/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	automationService *services.Automation
	cardService       *services.Cards
	dispatcher        *dispatcher.Dispatcher
	sink              *logsink.Sink
	hooks             *hooks.CardHooks
	registry          *registry.Registry
	persistence       persistence.Persistence
	validator         *validator.Validate
}

func NewAPIHandlers(
	automationService *services.Automation,
	cardService *services.Cards,
	dispatcher *dispatcher.Dispatcher,
	sink *logsink.Sink,
	hooks *hooks.CardHooks,
	registry *registry.Registry,
	persistence persistence.Persistence,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		automationService: automationService,
		cardService:       cardService,
		dispatcher:        dispatcher,
		sink:              sink,
		hooks:             hooks,
		registry:          registry,
		persistence:       persistence,
		validator:         validator,
	}
}

// Register mounts every endpoint on router.
func (h *APIHandlers) Register(router fiber.Router) {
	router.Get("/health", h.HealthCheck)

	router.Post("/boards", h.CreateBoard)
	router.Post("/boards/:boardId/columns", h.CreateColumn)
	router.Get("/boards/:boardId/automations", h.GetAutomations)
	router.Post("/boards/:boardId/automations", h.CreateAutomation)
	router.Post("/boards/:boardId/cards", h.CreateCard)

	a := router.Group("/automations")
	a.Get("/schema", h.GetSchema)
	a.Get("/:id", h.GetAutomation)
	a.Patch("/:id", h.UpdateAutomation)
	a.Delete("/:id", h.DeleteAutomation)
	a.Post("/:id/test", h.TestAutomation)
	a.Get("/:id/logs", h.GetAutomationLogs)

	c := router.Group("/cards")
	c.Get("/:id", h.GetCard)
	c.Patch("/:id", h.UpdateCard)
	c.Post("/:id/move", h.MoveCard)
	c.Post("/:id/complete", h.CompleteCard)
	c.Post("/:id/checklists", h.CreateChecklist)
	c.Post("/:id/checklists/:checklistId/complete", h.CompleteChecklist)

	router.Get("/notifications", h.GetNotifications)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	httpStatus := http.StatusOK
	repositoryCheck := "ok"

	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
		repositoryCheck = err.Error()
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
			"actions":    len(h.registry.ActionTypes()),
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetAutomations(c fiber.Ctx) error {
	automations, err := h.automationService.List(c.Context(), c.Params("boardId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(automations)
}

func (h *APIHandlers) CreateAutomation(c fiber.Ctx) error {
	var req CreateAutomationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.automationService.Create(c.Context(), req.toService(c.Params("boardId")))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetAutomation(c fiber.Ctx) error {
	automation, err := h.automationService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(automation)
}

func (h *APIHandlers) UpdateAutomation(c fiber.Ctx) error {
	var req UpdateAutomationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.automationService.Update(c.Context(), c.Params("id"), req.toService())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteAutomation(c fiber.Ctx) error {
	if err := h.automationService.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// TestAutomation runs the rule against the sample event in the body without
// invoking any action.
func (h *APIHandlers) TestAutomation(c fiber.Ctx) error {
	automation, err := h.automationService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	var sample models.Event

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&sample); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	return c.JSON(h.dispatcher.Test(c.Context(), automation, &sample))
}

func (h *APIHandlers) GetAutomationLogs(c fiber.Ctx) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return badRequest(c, "Invalid limit: "+err.Error())
	}

	offset, err := queryInt(c, "offset")
	if err != nil {
		return badRequest(c, "Invalid offset: "+err.Error())
	}

	automationID := c.Params("id")
	if _, err := h.automationService.Get(c.Context(), automationID); err != nil {
		return handleServiceError(c, err)
	}

	page, err := h.sink.Page(c.Context(), automationID, limit, offset)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(page)
}

func (h *APIHandlers) GetSchema(c fiber.Ctx) error {
	return c.JSON(SchemaResponse{
		TriggerTypes: models.TriggerTypes,
		Conditions:   conditions.Schemas(),
		Actions:      h.registry.Actions(),
	})
}

func (h *APIHandlers) GetNotifications(c fiber.Ctx) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return badRequest(c, "Invalid limit: "+err.Error())
	}

	if limit <= 0 {
		limit = logsink.DefaultPageSize
	}

	notifications, err := h.cardService.ListNotifications(c.Context(), c.Query("user_id"), min(limit, logsink.MaxPageSize))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(notifications)
}

func queryInt(c fiber.Ctx, key string) (int, error) {
	value := c.Query(key)
	if value == "" {
		return 0, nil
	}

	return strconv.Atoi(value)
}
