package handlers_fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// SubmitOptimization queues a VRP job; an empty selection uses every
// located user.
func (h *Handler) SubmitOptimization(c *fiber.Ctx) error {
	var body struct {
		UserIDs []string `json:"user_ids"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return badBody(c)
		}
	}
	job, err := h.jobs.Submit(c.UserContext(), body.UserIDs)
	if err != nil {
		h.log.Errorw("failed to submit optimization", "error", err.Error())
		return writeError(c, err)
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"job": job})
}

func (h *Handler) GetOptimization(c *fiber.Ctx) error {
	job, err := h.jobs.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"job": job})
}

func (h *Handler) ListVehicles(c *fiber.Ctx) error {
	vehicles, err := h.vehicles.Vehicles(c.UserContext())
	if err != nil {
		h.log.Errorw("failed to list vehicles", "error", err.Error())
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"vehicles": vehicles})
}
