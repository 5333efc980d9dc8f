package handlers

import (
	"github.com/CampusPerks/points_service/internal/api/rest/middleware"
	"github.com/CampusPerks/points_service/internal/domain"
	"github.com/CampusPerks/points_service/internal/dto"
	"github.com/CampusPerks/points_service/internal/helper/utils"
	"github.com/CampusPerks/points_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

type EventHandler struct {
	svc services.EventService
}

func NewEventHandler(svc services.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

func (h *EventHandler) SetupRoutes(app *fiber.App) {
	events := app.Group("/events")

	events.Post("/", middleware.RoleClearance(domain.RoleManager), h.CreateEvent)
	events.Get("/", h.ListEvents)
	events.Get("/:eventId", h.GetEvent)
	events.Patch("/:eventId", h.UpdateEvent)
	events.Delete("/:eventId", middleware.RoleClearance(domain.RoleManager), h.DeleteEvent)

	events.Post("/:eventId/organizers", middleware.RoleClearance(domain.RoleManager), h.AddOrganizer)
	events.Delete("/:eventId/organizers/:userId", middleware.RoleClearance(domain.RoleManager), h.RemoveOrganizer)

	events.Post("/:eventId/guests/me", h.JoinEvent)
	events.Delete("/:eventId/guests/me", h.LeaveEvent)
	events.Post("/:eventId/guests", h.AddGuest)
	events.Delete("/:eventId/guests/:userId", middleware.RoleClearance(domain.RoleManager), h.RemoveGuest)

	events.Post("/:eventId/transactions", h.AwardPoints)
}

func (h *EventHandler) CreateEvent(ctx *fiber.Ctx) error {
	var requestBody dto.CreateEventRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}

	resp, err := h.svc.CreateEvent(requestBody)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, resp)
}

func (h *EventHandler) ListEvents(ctx *fiber.Ctx) error {
	viewer, ok := middleware.CurrentUser(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var filter dto.EventFilter
	if err := ctx.QueryParser(&filter); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid filter parameters")
	}

	resp, err := h.svc.ListEvents(viewer, filter)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *EventHandler) GetEvent(ctx *fiber.Ctx) error {
	eventID, err := pathID(ctx, "eventId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid event id")
	}
	viewer, ok := middleware.CurrentUser(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	resp, err := h.svc.GetEvent(viewer, eventID)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *EventHandler) UpdateEvent(ctx *fiber.Ctx) error {
	eventID, err := pathID(ctx, "eventId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid event id")
	}
	actor, ok := middleware.CurrentUser(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.UpdateEventRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}

	resp, err := h.svc.UpdateEvent(actor, eventID, requestBody)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *EventHandler) DeleteEvent(ctx *fiber.Ctx) error {
	eventID, err := pathID(ctx, "eventId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid event id")
	}

	if err := h.svc.DeleteEvent(eventID); err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (h *EventHandler) AddOrganizer(ctx *fiber.Ctx) error {
	eventID, err := pathID(ctx, "eventId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid event id")
	}

	var requestBody struct {
		Utorid string `json:"utorid"`
	}
	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Utorid == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "utorid is required")
	}

	resp, err := h.svc.AddOrganizer(eventID, requestBody.Utorid)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, resp)
}

func (h *EventHandler) RemoveOrganizer(ctx *fiber.Ctx) error {
	eventID, err := pathID(ctx, "eventId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid event id")
	}
	userID, err := pathID(ctx, "userId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid user id")
	}

	if err := h.svc.RemoveOrganizer(eventID, userID); err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (h *EventHandler) JoinEvent(ctx *fiber.Ctx) error {
	eventID, err := pathID(ctx, "eventId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid event id")
	}
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	resp, err := h.svc.JoinEvent(user, eventID)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, resp)
}

func (h *EventHandler) LeaveEvent(ctx *fiber.Ctx) error {
	eventID, err := pathID(ctx, "eventId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid event id")
	}
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.svc.LeaveEvent(user, eventID); err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (h *EventHandler) AddGuest(ctx *fiber.Ctx) error {
	eventID, err := pathID(ctx, "eventId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid event id")
	}
	actor, ok := middleware.CurrentUser(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody struct {
		Utorid string `json:"utorid"`
	}
	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Utorid == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "utorid is required")
	}

	resp, err := h.svc.AddGuest(actor, eventID, requestBody.Utorid)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, resp)
}

func (h *EventHandler) RemoveGuest(ctx *fiber.Ctx) error {
	eventID, err := pathID(ctx, "eventId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid event id")
	}
	userID, err := pathID(ctx, "userId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid user id")
	}

	if err := h.svc.RemoveGuest(eventID, userID); err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (h *EventHandler) AwardPoints(ctx *fiber.Ctx) error {
	eventID, err := pathID(ctx, "eventId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid event id")
	}
	actor, ok := middleware.CurrentUser(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.AwardPointsRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}

	results, err := h.svc.AwardPoints(actor, eventID, requestBody)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	if requestBody.Utorid != nil && len(results) == 1 {
		return utils.ResponseSuccess(ctx, fiber.StatusCreated, results[0])
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, results)
}
