package handlers

import (
	"github.com/CampusPerks/points_service/internal/api/rest/middleware"
	"github.com/CampusPerks/points_service/internal/domain"
	"github.com/CampusPerks/points_service/internal/dto"
	"github.com/CampusPerks/points_service/internal/helper/utils"
	"github.com/CampusPerks/points_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

type TransactionHandler struct {
	svc services.LedgerService
}

func NewTransactionHandler(svc services.LedgerService) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

func (h *TransactionHandler) SetupRoutes(app *fiber.App) {
	txns := app.Group("/transactions")

	txns.Post("/", middleware.RoleClearance(domain.RoleCashier), h.CreateTransaction)
	txns.Get("/", middleware.RoleClearance(domain.RoleManager), h.ListTransactions)
	txns.Get("/:transactionId", middleware.RoleClearance(domain.RoleManager), h.GetTransaction)
	txns.Patch("/:transactionId/suspicious", middleware.RoleClearance(domain.RoleManager), h.SetSuspicious)
	txns.Patch("/:transactionId/processed", middleware.RoleClearance(domain.RoleCashier), h.ProcessRedemption)
}

// CreateTransaction: purchases need cashier clearance (from the route),
// adjustments additionally need manager clearance.
func (h *TransactionHandler) CreateTransaction(ctx *fiber.Ctx) error {
	actor, ok := middleware.CurrentUser(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.CreateTransactionRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}

	if requestBody.Type == domain.TxAdjustment && !domain.RoleAtLeast(actor.Role, domain.RoleManager) {
		return utils.ResponseError(ctx, fiber.StatusForbidden, "insufficient clearance")
	}

	resp, err := h.svc.CreateTransaction(actor, requestBody)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, resp)
}

func (h *TransactionHandler) ListTransactions(ctx *fiber.Ctx) error {
	var filter dto.TransactionFilter
	if err := ctx.QueryParser(&filter); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid filter parameters")
	}

	resp, err := h.svc.ListTransactions(filter)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *TransactionHandler) GetTransaction(ctx *fiber.Ctx) error {
	txnID, err := pathID(ctx, "transactionId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid transaction id")
	}

	resp, err := h.svc.GetTransaction(txnID)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *TransactionHandler) SetSuspicious(ctx *fiber.Ctx) error {
	txnID, err := pathID(ctx, "transactionId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid transaction id")
	}

	var requestBody dto.SuspiciousRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}

	resp, err := h.svc.SetSuspicious(txnID, requestBody)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *TransactionHandler) ProcessRedemption(ctx *fiber.Ctx) error {
	txnID, err := pathID(ctx, "transactionId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid transaction id")
	}
	processor, ok := middleware.CurrentUser(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.ProcessedRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}

	resp, err := h.svc.ProcessRedemption(processor, txnID, requestBody)
	if err != nil {
		return utils.ResponseFromError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}
