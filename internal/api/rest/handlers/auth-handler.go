package handlers

import (
	"errors"

	"github.com/CampusPerks/points_service/internal/dto"
	"github.com/CampusPerks/points_service/internal/helper/utils"
	"github.com/CampusPerks/points_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	svc services.UserService
}

func NewAuthHandler(svc services.UserService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) SetupRoutes(app *fiber.App) {
	auth := app.Group("/auth")

	auth.Post("/tokens", h.IssueToken)
	auth.Post("/resets", h.RequestReset)
	auth.Post("/resets/:resetToken", h.CompleteReset)
}

func (h *AuthHandler) IssueToken(ctx *fiber.Ctx) error {
	var requestBody dto.TokenRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "utorid and password are required")
	}
	if requestBody.Utorid == "" || requestBody.Password == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "utorid and password are required")
	}

	resp, err := h.svc.Login(requestBody)
	if err != nil {
		if errors.Is(err, services.ErrBadCredentials) {
			return utils.ResponseError(ctx, fiber.StatusUnauthorized, "invalid utorid or password")
		}
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

// RequestReset answers 202: the token is issued but delivery happens out
// of band. Repeat requests from the same address inside the cooldown get
// a 429.
func (h *AuthHandler) RequestReset(ctx *fiber.Ctx) error {
	var requestBody dto.ResetRequest
	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Utorid == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "utorid is required")
	}

	resp, err := h.svc.RequestReset(requestBody.Utorid, ctx.IP())
	if err != nil {
		if errors.Is(err, services.ErrResetThrottled) {
			return utils.ResponseError(ctx, fiber.StatusTooManyRequests, "too many reset requests")
		}
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusAccepted, resp)
}

func (h *AuthHandler) CompleteReset(ctx *fiber.Ctx) error {
	resetToken := ctx.Params("resetToken")

	var requestBody dto.ResetApplyRequest
	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Utorid == "" || requestBody.Password == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "utorid and password are required")
	}

	if err := h.svc.CompleteReset(resetToken, requestBody); err != nil {
		switch {
		case errors.Is(err, services.ErrTokenMismatch):
			return utils.ResponseError(ctx, fiber.StatusUnauthorized, err.Error())
		case errors.Is(err, services.ErrTokenExpired):
			return utils.ResponseError(ctx, fiber.StatusGone, err.Error())
		}
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, fiber.Map{"message": "password updated"})
}
