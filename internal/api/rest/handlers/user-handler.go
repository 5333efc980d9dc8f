package handlers

import (
	"errors"
	"strconv"

	"github.com/CampusPerks/points_service/internal/api/rest/middleware"
	"github.com/CampusPerks/points_service/internal/domain"
	"github.com/CampusPerks/points_service/internal/dto"
	"github.com/CampusPerks/points_service/internal/helper/utils"
	"github.com/CampusPerks/points_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	svc       services.UserService
	ledgerSvc services.LedgerService
}

func NewUserHandler(svc services.UserService, ledgerSvc services.LedgerService) *UserHandler {
	return &UserHandler{svc: svc, ledgerSvc: ledgerSvc}
}

func (h *UserHandler) SetupRoutes(app *fiber.App) {
	users := app.Group("/users")

	// Self-serve
	users.Get("/me", h.Me)
	users.Patch("/me", h.UpdateProfile)
	users.Patch("/me/password", h.ChangePassword)
	users.Get("/me/transactions", h.ListOwnTransactions)
	users.Post("/me/transactions", h.CreateRedemption)

	// Staff
	users.Post("/", middleware.RoleClearance(domain.RoleCashier), h.CreateUser)
	users.Get("/", middleware.RoleClearance(domain.RoleManager), h.ListUsers)
	users.Get("/:userId", middleware.RoleClearance(domain.RoleCashier), h.GetUser)
	users.Patch("/:userId", middleware.RoleClearance(domain.RoleManager), h.AdminUpdateUser)

	// Peer transfer
	users.Post("/:userId/transactions", h.Transfer)
}

func (h *UserHandler) CreateUser(ctx *fiber.Ctx) error {
	var requestBody dto.CreateUserRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}

	resp, err := h.svc.CreateUser(requestBody)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, resp)
}

func (h *UserHandler) ListUsers(ctx *fiber.Ctx) error {
	var filter dto.UserFilter
	if err := ctx.QueryParser(&filter); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid filter parameters")
	}

	resp, err := h.svc.ListUsers(filter)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *UserHandler) GetUser(ctx *fiber.Ctx) error {
	userID, err := pathID(ctx, "userId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid user id")
	}
	viewer, ok := middleware.CurrentUser(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	resp, err := h.svc.GetUser(viewer, userID)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *UserHandler) AdminUpdateUser(ctx *fiber.Ctx) error {
	userID, err := pathID(ctx, "userId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid user id")
	}
	actor, ok := middleware.CurrentUser(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.AdminUpdateUserRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}

	resp, err := h.svc.AdminUpdateUser(actor, userID, requestBody)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *UserHandler) Me(ctx *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	resp, err := h.svc.GetProfile(user)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *UserHandler) UpdateProfile(ctx *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.UpdateProfileRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}

	resp, err := h.svc.UpdateProfile(user, requestBody)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *UserHandler) ChangePassword(ctx *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.PasswordChangeRequest
	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Old == "" || requestBody.New == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "old and new passwords are required")
	}

	if err := h.svc.ChangePassword(user, requestBody); err != nil {
		if errors.Is(err, services.ErrBadCredentials) {
			return utils.ResponseError(ctx, fiber.StatusForbidden, "incorrect current password")
		}
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, fiber.Map{"message": "password updated"})
}

func (h *UserHandler) ListOwnTransactions(ctx *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var filter dto.TransactionFilter
	if err := ctx.QueryParser(&filter); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid filter parameters")
	}

	resp, err := h.ledgerSvc.ListOwnTransactions(user, filter)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *UserHandler) CreateRedemption(ctx *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.RedemptionRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}

	resp, err := h.ledgerSvc.CreateRedemption(user, requestBody)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, resp)
}

func (h *UserHandler) Transfer(ctx *fiber.Ctx) error {
	recipientID, err := pathID(ctx, "userId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid user id")
	}
	sender, ok := middleware.CurrentUser(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.TransferRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}

	resp, err := h.ledgerSvc.Transfer(sender, recipientID, requestBody)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, resp)
}

func pathID(ctx *fiber.Ctx, name string) (uint, error) {
	raw := ctx.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
