package utils

import (
	"github.com/CampusPerks/points_service/internal/apperrors"
	"github.com/gofiber/fiber/v2"
)

func ResponseError(ctx *fiber.Ctx, status int, msg string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

// create a generic response function for success
func ResponseSuccess(ctx *fiber.Ctx, status int, data interface{}) error {
	return ctx.Status(status).JSON(data)
}

// ResponseFromError maps the service error taxonomy onto HTTP statuses.
func ResponseFromError(ctx *fiber.Ctx, err error) error {
	switch e := err.(type) {
	case *apperrors.ValidationError:
		return ResponseError(ctx, fiber.StatusBadRequest, e.Error())
	case *apperrors.NotFoundError:
		return ResponseError(ctx, fiber.StatusNotFound, e.Error())
	case *apperrors.ForbiddenError:
		return ResponseError(ctx, fiber.StatusForbidden, e.Error())
	case *apperrors.ConflictError:
		return ResponseError(ctx, fiber.StatusConflict, e.Error())
	default:
		return ResponseError(ctx, fiber.StatusInternalServerError, "internal server error")
	}
}
