package baas

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Khangurai/zap-admin/internal/entities"
)

type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Session struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int      `json:"expires_in"`
	User         AuthUser `json:"user"`
}

// SignInWithPassword exchanges email/password for a session. Rejected
// credentials come back as ErrUnauthorized.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", entities.ErrInvalidArgument)
	}
	var s Session
	err := c.call(ctx, "sign_in", http.MethodPost, "/auth/v1/token?grant_type=password", "", nil,
		map[string]string{"email": email, "password": password}, &s)
	if err != nil {
		// the token endpoint answers bad credentials with 400
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusBadRequest {
			return nil, fmt.Errorf("invalid login credentials: %w", entities.ErrUnauthorized)
		}
		return nil, err
	}
	return &s, nil
}

// GetUser resolves an access token to its user.
func (c *Client) GetUser(ctx context.Context, token string) (*AuthUser, error) {
	if token == "" {
		return nil, entities.ErrUnauthorized
	}
	var u AuthUser
	if err := c.call(ctx, "get_user", http.MethodGet, "/auth/v1/user", token, nil, nil, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, entities.ErrUnauthorized
	}
	return &u, nil
}

func (c *Client) SignOut(ctx context.Context, token string) error {
	return c.call(ctx, "sign_out", http.MethodPost, "/auth/v1/logout", token, nil, nil, nil)
}

func (c *Client) UpdatePassword(ctx context.Context, token, password string) error {
	return c.call(ctx, "update_password", http.MethodPut, "/auth/v1/user", token, nil,
		map[string]string{"password": password}, nil)
}
