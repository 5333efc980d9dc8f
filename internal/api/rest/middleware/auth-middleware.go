package middleware

import (
	"strings"

	"github.com/CampusPerks/points_service/internal/domain"
	"github.com/CampusPerks/points_service/internal/helper"
	"github.com/CampusPerks/points_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware verifies the bearer token and loads the current account
// fresh from the store, so role and suspicious changes take effect on the
// next request, not at the next login.
func AuthMiddleware(auth helper.Auth, userSvc services.UserService) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := strings.TrimSpace(ctx.Get("Authorization"))

		claims, err := auth.VerifyToken(tokenStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		user, err := userSvc.FindByUtorid(claims.Utorid)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		ctx.Locals("claims", claims)
		ctx.Locals("user", user)
		return ctx.Next()
	}
}

// RoleClearance gates a route behind a minimum role.
func RoleClearance(min string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		user, ok := ctx.Locals("user").(*domain.User)
		if !ok || user == nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}
		if !domain.RoleAtLeast(user.Role, min) {
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "insufficient clearance",
			})
		}
		return ctx.Next()
	}
}

// CurrentUser pulls the account loaded by AuthMiddleware.
func CurrentUser(ctx *fiber.Ctx) (*domain.User, bool) {
	user, ok := ctx.Locals("user").(*domain.User)
	return user, ok && user != nil
}
