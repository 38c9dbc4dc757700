package handlers_fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Khangurai/zap-admin/internal/transport/http/middleware"
	"github.com/Khangurai/zap-admin/internal/usecase/domain"
)

func (h *Handler) GetProfile(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)
	p, err := h.uc.GetProfile(c.UserContext(), user.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"profile": p})
}

// UpdateProfile renames the admin and optionally changes the password.
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var body domain.ProfileUpdate
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}
	user, _ := middleware.CurrentUser(c)
	p, err := h.uc.UpdateProfile(c.UserContext(), user.ID, middleware.Token(c), body)
	if err != nil {
		h.log.Errorw("failed to update profile", "error", err.Error(), "user_id", user.ID)
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"profile": p})
}

// UploadAvatar accepts a multipart "file" field.
func (h *Handler) UploadAvatar(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(errorResponse(InvalidArgument, "file is required"))
	}
	f, err := fh.Open()
	if err != nil {
		h.log.Errorw("failed to open upload", "error", err.Error())
		return writeError(c, err)
	}
	defer f.Close()

	user, _ := middleware.CurrentUser(c)
	p, err := h.uc.UploadAvatar(c.UserContext(), user.ID, domain.AvatarFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
	}, f)
	if err != nil {
		h.log.Errorw("failed to upload avatar", "error", err.Error(), "user_id", user.ID)
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"profile": p})
}

func (h *Handler) RemoveAvatar(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)
	p, err := h.uc.RemoveAvatar(c.UserContext(), user.ID)
	if err != nil {
		h.log.Errorw("failed to remove avatar", "error", err.Error(), "user_id", user.ID)
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"profile": p})
}
