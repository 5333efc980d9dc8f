package handlers

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/CampusPerks/points_service/internal/api/rest/middleware"
	"github.com/CampusPerks/points_service/internal/helper/utils"
	"github.com/CampusPerks/points_service/internal/services"
	pkgutils "github.com/CampusPerks/points_service/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

const maxAvatarSize = 5 * 1024 * 1024 // 5MB

type UploadHandler struct {
	svc services.UserService
}

func NewUploadHandler(svc services.UserService) *UploadHandler {
	return &UploadHandler{svc: svc}
}

func (h *UploadHandler) SetupRoutes(app *fiber.App) {
	app.Post("/users/me/avatar", h.UploadAvatar)
}

// POST /users/me/avatar
// form-data: avatar=<image>
func (h *UploadHandler) UploadAvatar(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return utils.ResponseError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return utils.ResponseError(c, fiber.StatusBadRequest, "avatar file is required")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}
	if !allowed[ext] {
		return utils.ResponseError(c, fiber.StatusBadRequest, "only jpg/jpeg/png/webp allowed")
	}
	if file.Size > maxAvatarSize {
		return utils.ResponseError(c, fiber.StatusBadRequest, "file too large (max 5MB)")
	}

	f, err := file.Open()
	if err != nil {
		return utils.ResponseError(c, fiber.StatusInternalServerError, "cannot open uploaded file")
	}
	defer f.Close()

	data, err := pkgutils.ReadAllLimit(f, maxAvatarSize)
	if err != nil {
		return utils.ResponseError(c, fiber.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	url, err := h.svc.UpdateAvatar(ctx, user, data)
	if err != nil {
		return utils.ResponseFromError(c, err)
	}
	return utils.ResponseSuccess(c, fiber.StatusOK, fiber.Map{"avatarUrl": url})
}
