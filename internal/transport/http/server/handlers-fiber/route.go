package handlers_fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Khangurai/zap-admin/internal/entities"
	"github.com/Khangurai/zap-admin/internal/mapping/mapbox"
)

func (h *Handler) ListRoutes(c *fiber.Ctx) error {
	routes, err := h.uc.ListRoutes(c.UserContext())
	if err != nil {
		h.log.Errorw("failed to list routes", "error", err.Error())
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"routes": routes})
}

func (h *Handler) GetRoute(c *fiber.Ctx) error {
	route, err := h.uc.GetRoute(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"route": route})
}

func (h *Handler) CreateRoute(c *fiber.Ctx) error {
	var body entities.Route
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}
	route, err := h.uc.CreateRoute(c.UserContext(), body)
	if err != nil {
		h.log.Errorw("failed to create route", "error", err.Error())
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"route": route})
}

func (h *Handler) DeleteRoute(c *fiber.Ctx) error {
	if err := h.uc.DeleteRoute(c.UserContext(), c.Params("id")); err != nil {
		h.log.Errorw("failed to delete route", "error", err.Error(), "route_id", c.Params("id"))
		return writeError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// AssignRoute links the route to a driver and a car; null clears either.
func (h *Handler) AssignRoute(c *fiber.Ctx) error {
	var body struct {
		DriverID *string `json:"driver_id"`
		CarID    *string `json:"car_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}
	route, err := h.uc.AssignRoute(c.UserContext(), c.Params("id"), body.DriverID, body.CarID)
	if err != nil {
		h.log.Errorw("failed to assign route", "error", err.Error(), "route_id", c.Params("id"))
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"route": route})
}

// RouteStaticMap returns a static image URL for the route.
func (h *Handler) RouteStaticMap(c *fiber.Ctx) error {
	width, err := queryInt(c, "width", mapbox.DefaultWidth)
	if err != nil {
		return writeError(c, err)
	}
	height, err := queryInt(c, "height", mapbox.DefaultHeight)
	if err != nil {
		return writeError(c, err)
	}
	url, err := h.uc.RouteStaticMap(c.UserContext(), c.Params("id"), width, height)
	if err != nil {
		h.log.Errorw("failed to render static map", "error", err.Error(), "route_id", c.Params("id"))
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"url": url})
}
