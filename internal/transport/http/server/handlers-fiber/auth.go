package handlers_fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Khangurai/zap-admin/internal/transport/http/middleware"
)

func (h *Handler) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}
	res, err := h.uc.Login(c.UserContext(), body.Email, body.Password)
	if err != nil {
		h.log.Warnw("login failed", "error", err.Error())
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(res)
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	if err := h.uc.Logout(c.UserContext(), middleware.Token(c)); err != nil {
		h.log.Errorw("failed to sign out", "error", err.Error())
		return writeError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Me returns the session user and the admin profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)
	me, err := h.uc.Me(c.UserContext(), *user)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(me)
}
