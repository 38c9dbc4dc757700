package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Khangurai/zap-admin/internal/baas"
)

const (
	localUser  = "auth_user"
	localToken = "auth_token"
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*baas.AuthUser, error)
}

// BearerAuth rejects requests without a valid "Authorization: Bearer" token
// and stores the resolved user in the request locals.
func BearerAuth(log *zap.SugaredLogger, auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return unauthorized(c, "missing bearer token")
		}
		user, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			log.Debugw("rejected token", "path", c.Path(), "err", err)
			return unauthorized(c, "invalid or expired session")
		}
		c.Locals(localUser, user)
		c.Locals(localToken, token)
		return c.Next()
	}
}

// CurrentUser returns the user set by BearerAuth.
func CurrentUser(c *fiber.Ctx) (*baas.AuthUser, bool) {
	u, ok := c.Locals(localUser).(*baas.AuthUser)
	return u, ok && u != nil
}

// Token returns the bearer token accepted by BearerAuth.
func Token(c *fiber.Ctx) string {
	t, _ := c.Locals(localToken).(string)
	return t
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": fiber.Map{"code": "UNAUTHORIZED", "message": msg},
	})
}
