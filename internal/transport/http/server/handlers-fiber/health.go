package handlers_fiber

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a backing service answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthz answers 200 while every dependency answers its ping, 503 otherwise.
func Healthz(deps ...Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, d := range deps {
			if err := d.Ping(c.UserContext()); err != nil {
				return c.Status(http.StatusServiceUnavailable).JSON(errorResponse(Upstream, err.Error()))
			}
		}
		return c.SendStatus(http.StatusOK)
	}
}
