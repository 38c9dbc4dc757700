package usecase

import (
	"context"
	"io"

	"github.com/Khangurai/zap-admin/internal/baas"
	"github.com/Khangurai/zap-admin/internal/entities"
	"github.com/Khangurai/zap-admin/internal/usecase/domain"
)

// UserUsecaseInterface abstracts driver/member operations.
type UserUsecaseInterface interface {
	ListUsers(ctx context.Context, search string) ([]entities.User, error)
	UserMarkers(ctx context.Context) ([]entities.User, error)
	CreateUser(ctx context.Context, name, username string) (*entities.User, error)
	UpdateUser(ctx context.Context, id, name, username string) (*entities.User, error)
	SetUserStatus(ctx context.Context, id string, status bool) (*entities.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// CarUsecaseInterface abstracts fleet vehicle operations.
type CarUsecaseInterface interface {
	ListCars(ctx context.Context) ([]entities.Car, error)
	GetCar(ctx context.Context, id string) (*entities.Car, error)
	CreateCar(ctx context.Context, car entities.Car) (*entities.Car, error)
	UpdateCar(ctx context.Context, id string, patch entities.CarPatch) (*entities.Car, error)
	DeleteCar(ctx context.Context, id string) error
}

// RouteUsecaseInterface abstracts saved route operations.
type RouteUsecaseInterface interface {
	ListRoutes(ctx context.Context) ([]entities.Route, error)
	GetRoute(ctx context.Context, id string) (*entities.Route, error)
	CreateRoute(ctx context.Context, route entities.Route) (*entities.Route, error)
	DeleteRoute(ctx context.Context, id string) error
	AssignRoute(ctx context.Context, id string, driverID, carID *string) (*entities.Route, error)
	RouteStaticMap(ctx context.Context, id string, width, height int) (string, error)
}

// ProfileUsecaseInterface abstracts the signed-in admin's profile.
type ProfileUsecaseInterface interface {
	GetProfile(ctx context.Context, userID string) (*entities.Profile, error)
	UpdateProfile(ctx context.Context, userID, token string, upd domain.ProfileUpdate) (*entities.Profile, error)
	UploadAvatar(ctx context.Context, userID string, file domain.AvatarFile, body io.Reader) (*entities.Profile, error)
	RemoveAvatar(ctx context.Context, userID string) (*entities.Profile, error)
}

// AuthUsecaseInterface abstracts sessions.
type AuthUsecaseInterface interface {
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*baas.AuthUser, error)
	Me(ctx context.Context, user baas.AuthUser) (*domain.Me, error)
}
