package handlers_fiber

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Khangurai/zap-admin/internal/entities"
	"github.com/Khangurai/zap-admin/internal/geo"
	"github.com/Khangurai/zap-admin/internal/mapping/google"
	"github.com/Khangurai/zap-admin/internal/planner"
)

func (h *Handler) planResult(c *fiber.Ctx, op string, p *planner.Plan, err error) error {
	if err != nil {
		h.log.Errorw("plan "+op+" failed", "error", err.Error(), "plan_id", c.Params("id"))
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"plan": p})
}

func (h *Handler) CreatePlan(c *fiber.Ctx) error {
	p, err := h.plans.Create(c.UserContext())
	if err != nil {
		h.log.Errorw("failed to create plan", "error", err.Error())
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"plan": p})
}

func (h *Handler) GetPlan(c *fiber.Ctx) error {
	p, err := h.plans.Get(c.UserContext(), c.Params("id"))
	return h.planResult(c, "get", p, err)
}

func (h *Handler) DeletePlan(c *fiber.Ctx) error {
	if err := h.plans.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *Handler) ClearPlan(c *fiber.Ctx) error {
	p, err := h.plans.Clear(c.UserContext(), c.Params("id"))
	return h.planResult(c, "clear", p, err)
}

// optionalPlace reads a Place body; an empty body or null clears the endpoint.
func optionalPlace(c *fiber.Ctx) (*entities.Place, error) {
	var place *entities.Place
	if len(c.Body()) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(c.Body(), &place); err != nil {
		return nil, err
	}
	return place, nil
}

func (h *Handler) SetOrigin(c *fiber.Ctx) error {
	place, err := optionalPlace(c)
	if err != nil {
		return badBody(c)
	}
	p, err := h.plans.SetOrigin(c.UserContext(), c.Params("id"), place)
	return h.planResult(c, "set origin", p, err)
}

func (h *Handler) SetDestination(c *fiber.Ctx) error {
	place, err := optionalPlace(c)
	if err != nil {
		return badBody(c)
	}
	p, err := h.plans.SetDestination(c.UserContext(), c.Params("id"), place)
	return h.planResult(c, "set destination", p, err)
}

func (h *Handler) AddWaypoint(c *fiber.Ctx) error {
	var place entities.Place
	if err := c.BodyParser(&place); err != nil {
		return badBody(c)
	}
	p, err := h.plans.AddWaypoint(c.UserContext(), c.Params("id"), place)
	return h.planResult(c, "add waypoint", p, err)
}

// AddWaypointsFromUsers adds the selected users; an empty list adds every
// located user.
func (h *Handler) AddWaypointsFromUsers(c *fiber.Ctx) error {
	var body struct {
		UserIDs []string `json:"user_ids"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return badBody(c)
		}
	}
	p, err := h.plans.AddWaypointsFromUsers(c.UserContext(), c.Params("id"), body.UserIDs)
	return h.planResult(c, "add users", p, err)
}

func (h *Handler) RemoveWaypoint(c *fiber.Ctx) error {
	p, err := h.plans.RemoveWaypoint(c.UserContext(), c.Params("id"), c.Params("wid"))
	return h.planResult(c, "remove waypoint", p, err)
}

// ReorderWaypoints moves the active waypoint to the slot of the one it was
// dropped over.
func (h *Handler) ReorderWaypoints(c *fiber.Ctx) error {
	var body struct {
		ActiveID string `json:"active_id"`
		OverID   string `json:"over_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}
	p, err := h.plans.ReorderWaypoints(c.UserContext(), c.Params("id"), body.ActiveID, body.OverID)
	return h.planResult(c, "reorder", p, err)
}

func parsePosition(c *fiber.Ctx) (geo.Point, error) {
	var pos geo.Point
	if err := c.BodyParser(&pos); err != nil {
		return pos, fmt.Errorf("%w: %v", entities.ErrInvalidArgument, err)
	}
	if !pos.Valid() {
		return pos, fmt.Errorf("%w: invalid position %s", entities.ErrInvalidArgument, pos)
	}
	return pos, nil
}

func (h *Handler) MoveWaypoint(c *fiber.Ctx) error {
	pos, err := parsePosition(c)
	if err != nil {
		return writeError(c, err)
	}
	p, err := h.plans.MoveWaypoint(c.UserContext(), c.Params("id"), c.Params("wid"), pos)
	return h.planResult(c, "move waypoint", p, err)
}

func (h *Handler) MoveOrigin(c *fiber.Ctx) error {
	pos, err := parsePosition(c)
	if err != nil {
		return writeError(c, err)
	}
	p, err := h.plans.MoveOrigin(c.UserContext(), c.Params("id"), pos)
	return h.planResult(c, "move origin", p, err)
}

func (h *Handler) MoveDestination(c *fiber.Ctx) error {
	pos, err := parsePosition(c)
	if err != nil {
		return writeError(c, err)
	}
	p, err := h.plans.MoveDestination(c.UserContext(), c.Params("id"), pos)
	return h.planResult(c, "move destination", p, err)
}

// UpdateSettings changes the travel mode and/or the optimize flag.
func (h *Handler) UpdateSettings(c *fiber.Ctx) error {
	var body struct {
		TravelMode *string `json:"travel_mode"`
		Optimize   *bool   `json:"optimize"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}

	var mode *google.TravelMode
	if body.TravelMode != nil {
		m := google.TravelMode(*body.TravelMode)
		mode = &m
	}
	p, err := h.plans.UpdateSettings(c.UserContext(), c.Params("id"), mode, body.Optimize)
	return h.planResult(c, "settings", p, err)
}

func (h *Handler) FetchDirections(c *fiber.Ctx) error {
	p, err := h.plans.FetchDirections(c.UserContext(), c.Params("id"))
	return h.planResult(c, "directions", p, err)
}

func (h *Handler) ApplyOptimizedOrder(c *fiber.Ctx) error {
	p, err := h.plans.ApplyOptimizedOrder(c.UserContext(), c.Params("id"))
	return h.planResult(c, "apply order", p, err)
}

func (h *Handler) SaveRouteGeoJSON(c *fiber.Ctx) error {
	p, err := h.plans.SaveRouteGeoJSON(c.UserContext(), c.Params("id"))
	return h.planResult(c, "save geojson", p, err)
}

func (h *Handler) PlanMapsURL(c *fiber.Ctx) error {
	url, err := h.plans.MapsURL(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"url": url})
}

// SavePlan stores the plan as a route.
func (h *Handler) SavePlan(c *fiber.Ctx) error {
	var body struct {
		Name     string  `json:"name"`
		DriverID *string `json:"driver_id"`
		CarID    *string `json:"car_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}
	route, err := h.plans.Persist(c.UserContext(), c.Params("id"), body.Name, body.DriverID, body.CarID)
	if err != nil {
		h.log.Errorw("failed to save plan", "error", err.Error(), "plan_id", c.Params("id"))
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"route": route})
}
