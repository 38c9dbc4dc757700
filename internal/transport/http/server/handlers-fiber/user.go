package handlers_fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

type userBody struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

// ListUsers returns users filtered by the optional ?search= name fragment.
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	users, err := h.uc.ListUsers(c.UserContext(), c.Query("search"))
	if err != nil {
		h.log.Errorw("failed to list users", "error", err.Error())
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"users": users})
}

// UserMarkers returns the users that have a location.
func (h *Handler) UserMarkers(c *fiber.Ctx) error {
	users, err := h.uc.UserMarkers(c.UserContext())
	if err != nil {
		h.log.Errorw("failed to list user markers", "error", err.Error())
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"users": users})
}

func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var body userBody
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}
	usr, err := h.uc.CreateUser(c.UserContext(), body.Name, body.Username)
	if err != nil {
		h.log.Errorw("failed to create user", "error", err.Error())
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"user": usr})
}

func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	var body userBody
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}
	usr, err := h.uc.UpdateUser(c.UserContext(), c.Params("id"), body.Name, body.Username)
	if err != nil {
		h.log.Errorw("failed to update user", "error", err.Error(), "user_id", c.Params("id"))
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"user": usr})
}

// SetUserStatus toggles the active flag.
func (h *Handler) SetUserStatus(c *fiber.Ctx) error {
	var body struct {
		Status *bool `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil || body.Status == nil {
		return badBody(c)
	}
	usr, err := h.uc.SetUserStatus(c.UserContext(), c.Params("id"), *body.Status)
	if err != nil {
		h.log.Errorw("failed to set user status", "error", err.Error(), "user_id", c.Params("id"))
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"user": usr})
}

func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	if err := h.uc.DeleteUser(c.UserContext(), c.Params("id")); err != nil {
		h.log.Errorw("failed to delete user", "error", err.Error(), "user_id", c.Params("id"))
		return writeError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}
