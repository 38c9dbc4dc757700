package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/Khangurai/zap-admin/internal/entities"
)

// ListUsers returns users oldest first, optionally filtered by name.
func (u *Usecase) ListUsers(ctx context.Context, search string) ([]entities.User, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	return u.repo.ListUsers(ctx, entities.UserFilter{Search: strings.TrimSpace(search)})
}

// UserMarkers returns the users that can be drawn on the map.
func (u *Usecase) UserMarkers(ctx context.Context) ([]entities.User, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	return u.repo.ListUsers(ctx, entities.UserFilter{WithLocation: true})
}

func (u *Usecase) CreateUser(ctx context.Context, name, username string) (*entities.User, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	name, username = strings.TrimSpace(name), strings.TrimSpace(username)
	if name == "" || username == "" {
		return nil, fmt.Errorf("%w: name and username are required", entities.ErrInvalidArgument)
	}
	return u.repo.CreateUser(ctx, name, username)
}

func (u *Usecase) UpdateUser(ctx context.Context, id, name, username string) (*entities.User, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	name, username = strings.TrimSpace(name), strings.TrimSpace(username)
	if id == "" || name == "" || username == "" {
		return nil, fmt.Errorf("%w: id, name and username are required", entities.ErrInvalidArgument)
	}
	return u.repo.UpdateUser(ctx, id, name, username)
}

func (u *Usecase) SetUserStatus(ctx context.Context, id string, status bool) (*entities.User, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if id == "" {
		return nil, fmt.Errorf("%w: id is required", entities.ErrInvalidArgument)
	}
	return u.repo.SetUserStatus(ctx, id, status)
}

func (u *Usecase) DeleteUser(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if id == "" {
		return fmt.Errorf("%w: id is required", entities.ErrInvalidArgument)
	}
	return u.repo.DeleteUser(ctx, id)
}
