// Package repository contains repository interfaces for the fleet row store.
package repository

import (
	"context"

	"github.com/Khangurai/zap-admin/internal/entities"
)

// LifecycleInterface describes storage startup/shutdown hooks.
type LifecycleInterface interface {
	OnStart(_ context.Context) error
	OnStop(_ context.Context) error
}

// UserInterface exposes driver/member operations.
type UserInterface interface {
	ListUsers(ctx context.Context, filter entities.UserFilter) ([]entities.User, error)
	GetUser(ctx context.Context, id string) (*entities.User, error)
	CreateUser(ctx context.Context, name, username string) (*entities.User, error)
	UpdateUser(ctx context.Context, id, name, username string) (*entities.User, error)
	SetUserStatus(ctx context.Context, id string, status bool) (*entities.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// CarInterface exposes fleet vehicle operations.
type CarInterface interface {
	ListCars(ctx context.Context) ([]entities.Car, error)
	GetCar(ctx context.Context, id string) (*entities.Car, error)
	CreateCar(ctx context.Context, car entities.Car) (*entities.Car, error)
	UpdateCar(ctx context.Context, id string, patch entities.CarPatch) (*entities.Car, error)
	DeleteCar(ctx context.Context, id string) error
}

// RouteInterface exposes saved route operations.
type RouteInterface interface {
	ListRoutes(ctx context.Context) ([]entities.Route, error)
	GetRoute(ctx context.Context, id string) (*entities.Route, error)
	CreateRoute(ctx context.Context, route entities.Route) (*entities.Route, error)
	DeleteRoute(ctx context.Context, id string) error
	AssignRoute(ctx context.Context, id string, driverID, carID *string) (*entities.Route, error)
}

// ProfileInterface exposes admin profile operations.
type ProfileInterface interface {
	GetProfile(ctx context.Context, id string) (*entities.Profile, error)
	UpdateProfileName(ctx context.Context, id, fullName string) (*entities.Profile, error)
	SetProfileAvatar(ctx context.Context, id string, avatarURL *string) (*entities.Profile, error)
}
