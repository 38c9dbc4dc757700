package handlers_fiber

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Khangurai/zap-admin/internal/entities"
)

// carPatchBody distinguishes an absent driver_id from an explicit null,
// which unassigns the driver.
type carPatchBody struct {
	CarNumber *string         `json:"car_number"`
	DriverID  json.RawMessage `json:"driver_id"`
	ImageURL  *string         `json:"image_url"`
	Status    *bool           `json:"status"`
}

func (b carPatchBody) patch() (entities.CarPatch, error) {
	p := entities.CarPatch{CarNumber: b.CarNumber, ImageURL: b.ImageURL, Status: b.Status}
	switch raw := bytes.TrimSpace(b.DriverID); {
	case len(raw) == 0:
	case bytes.Equal(raw, []byte("null")):
		p.ClearDrv = true
	default:
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return p, err
		}
		p.DriverID = &id
	}
	return p, nil
}

func (h *Handler) ListCars(c *fiber.Ctx) error {
	cars, err := h.uc.ListCars(c.UserContext())
	if err != nil {
		h.log.Errorw("failed to list cars", "error", err.Error())
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"cars": cars})
}

func (h *Handler) GetCar(c *fiber.Ctx) error {
	car, err := h.uc.GetCar(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"car": car})
}

func (h *Handler) CreateCar(c *fiber.Ctx) error {
	var body entities.Car
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}
	car, err := h.uc.CreateCar(c.UserContext(), body)
	if err != nil {
		h.log.Errorw("failed to create car", "error", err.Error())
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"car": car})
}

func (h *Handler) UpdateCar(c *fiber.Ctx) error {
	var body carPatchBody
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}
	patch, err := body.patch()
	if err != nil {
		return badBody(c)
	}
	car, err := h.uc.UpdateCar(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		h.log.Errorw("failed to update car", "error", err.Error(), "car_id", c.Params("id"))
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"car": car})
}

func (h *Handler) DeleteCar(c *fiber.Ctx) error {
	if err := h.uc.DeleteCar(c.UserContext(), c.Params("id")); err != nil {
		h.log.Errorw("failed to delete car", "error", err.Error(), "car_id", c.Params("id"))
		return writeError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}
