// Package middleware contains HTTP middlewares for delivery.
package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Khangurai/zap-admin/internal/observability"
)

// RequestLogger logs HTTP requests with method, path, status and duration
// and records them in the request metrics.
func RequestLogger(log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		dur := time.Since(start)

		// the app error handler runs after us; predict its status
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		reqID, _ := c.Locals("requestid").(string)
		if reqID == "" {
			reqID = c.Get(fiber.HeaderXRequestID)
		}
		route := c.Route().Path
		observability.HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		observability.HTTPLatency.WithLabelValues(c.Method(), route).Observe(dur.Seconds())

		log.Infow("http",
			"method", c.Method(),
			"path", c.OriginalURL(),
			"status", status,
			"duration_ms", float64(dur.Microseconds())/1000.0,
			"request_id", reqID,
		)
		return err
	}
}
