package handlers

import (
	"github.com/CampusPerks/points_service/internal/api/rest/middleware"
	"github.com/CampusPerks/points_service/internal/domain"
	"github.com/CampusPerks/points_service/internal/dto"
	"github.com/CampusPerks/points_service/internal/helper/utils"
	"github.com/CampusPerks/points_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

type PromotionHandler struct {
	svc services.PromotionService
}

func NewPromotionHandler(svc services.PromotionService) *PromotionHandler {
	return &PromotionHandler{svc: svc}
}

func (h *PromotionHandler) SetupRoutes(app *fiber.App) {
	promos := app.Group("/promotions")

	promos.Post("/", middleware.RoleClearance(domain.RoleManager), h.CreatePromotion)
	promos.Get("/", h.ListPromotions)
	promos.Get("/:promotionId", h.GetPromotion)
	promos.Patch("/:promotionId", middleware.RoleClearance(domain.RoleManager), h.UpdatePromotion)
	promos.Delete("/:promotionId", middleware.RoleClearance(domain.RoleManager), h.DeletePromotion)
}

func (h *PromotionHandler) CreatePromotion(ctx *fiber.Ctx) error {
	var requestBody dto.CreatePromotionRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}

	resp, err := h.svc.CreatePromotion(requestBody)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, resp)
}

func (h *PromotionHandler) ListPromotions(ctx *fiber.Ctx) error {
	viewer, ok := middleware.CurrentUser(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var filter dto.PromotionFilter
	if err := ctx.QueryParser(&filter); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid filter parameters")
	}

	resp, err := h.svc.ListPromotions(viewer, filter)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *PromotionHandler) GetPromotion(ctx *fiber.Ctx) error {
	promotionID, err := pathID(ctx, "promotionId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid promotion id")
	}
	viewer, ok := middleware.CurrentUser(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	resp, err := h.svc.GetPromotion(viewer, promotionID)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *PromotionHandler) UpdatePromotion(ctx *fiber.Ctx) error {
	promotionID, err := pathID(ctx, "promotionId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid promotion id")
	}

	var requestBody dto.UpdatePromotionRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}

	resp, err := h.svc.UpdatePromotion(promotionID, requestBody)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *PromotionHandler) DeletePromotion(ctx *fiber.Ctx) error {
	promotionID, err := pathID(ctx, "promotionId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid promotion id")
	}

	if err := h.svc.DeletePromotion(promotionID); err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
