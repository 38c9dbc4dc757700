package handlers_fiber

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Khangurai/zap-admin/internal/entities"
	"github.com/Khangurai/zap-admin/internal/optimization"
)

type ErrorCode string

const (
	InvalidArgument ErrorCode = "INVALID_ARGUMENT"
	Unauthorized    ErrorCode = "UNAUTHORIZED"
	NotFound        ErrorCode = "NOT_FOUND"
	QuotaExceeded   ErrorCode = "QUOTA_EXCEEDED"
	NoRoute         ErrorCode = "NO_ROUTE"
	GeocodeFailed   ErrorCode = "GEOCODE_FAILED"
	OptimizeTimeout ErrorCode = "OPTIMIZE_TIMEOUT"
	QueueFull       ErrorCode = "QUEUE_FULL"
	Upstream        ErrorCode = "UPSTREAM"
	Internal        ErrorCode = "INTERNAL"
)

type ErrorResponse struct {
	Error struct {
		Code    ErrorCode `json:"code"`
		Message string    `json:"message"`
	} `json:"error"`
}

func writeError(c *fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	code := Internal
	msg := "internal error"

	switch {
	case errors.Is(err, entities.ErrInvalidArgument):
		status = http.StatusBadRequest
		code = InvalidArgument
		msg = err.Error()
	case errors.Is(err, entities.ErrUnauthorized):
		status = http.StatusUnauthorized
		code = Unauthorized
		msg = err.Error()
	case errors.Is(err, entities.ErrUserNotFound), errors.Is(err, entities.ErrCarNotFound),
		errors.Is(err, entities.ErrRouteNotFound), errors.Is(err, entities.ErrProfileNotFound),
		errors.Is(err, entities.ErrPlanNotFound), errors.Is(err, entities.ErrWaypointNotFound),
		errors.Is(err, entities.ErrJobNotFound):
		status = http.StatusNotFound
		code = NotFound
		msg = err.Error()
	case errors.Is(err, entities.ErrQuotaExceeded):
		status = http.StatusTooManyRequests
		code = QuotaExceeded
		msg = "daily request limit reached, try again tomorrow"
	case errors.Is(err, entities.ErrNoRoute):
		status = http.StatusUnprocessableEntity
		code = NoRoute
		msg = err.Error()
	case errors.Is(err, entities.ErrGeocodeFailed):
		status = http.StatusUnprocessableEntity
		code = GeocodeFailed
		msg = err.Error()
	case errors.Is(err, entities.ErrOptimizeTimeout):
		status = http.StatusGatewayTimeout
		code = OptimizeTimeout
		msg = "optimization did not finish in time"
	case errors.Is(err, optimization.ErrQueueFull):
		status = http.StatusServiceUnavailable
		code = QueueFull
		msg = err.Error()
	case errors.Is(err, entities.ErrUpstream):
		status = http.StatusBadGateway
		code = Upstream
		msg = err.Error()
	}

	return c.Status(status).JSON(errorResponse(code, msg))
}

func errorResponse(code ErrorCode, msg string) ErrorResponse {
	var r ErrorResponse
	r.Error.Code = code
	r.Error.Message = msg
	return r
}

func badBody(c *fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).JSON(errorResponse(InvalidArgument, "invalid body"))
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.Join(entities.ErrInvalidArgument, errors.New(key+" must be a positive integer"))
	}
	return n, nil
}
