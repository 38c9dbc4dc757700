package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/Khangurai/zap-admin/internal/entities"
	"github.com/Khangurai/zap-admin/internal/geo"
)

func (u *Usecase) ListRoutes(ctx context.Context) ([]entities.Route, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	return u.repo.ListRoutes(ctx)
}

func (u *Usecase) GetRoute(ctx context.Context, id string) (*entities.Route, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	return u.repo.GetRoute(ctx, id)
}

// CreateRoute saves a route built outside the planner. Origin and
// destination must be located.
func (u *Usecase) CreateRoute(ctx context.Context, route entities.Route) (*entities.Route, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	route.Name = strings.TrimSpace(route.Name)
	if route.Name == "" {
		return nil, fmt.Errorf("%w: route name is required", entities.ErrInvalidArgument)
	}
	if !route.Origin.HasLocation() || !route.Destination.HasLocation() {
		return nil, fmt.Errorf("%w: origin and destination are required", entities.ErrInvalidArgument)
	}
	if len(route.GeoJSON) > 0 {
		if _, err := geo.PathFromGeoJSON(route.GeoJSON); err != nil {
			return nil, fmt.Errorf("%w: %v", entities.ErrInvalidArgument, err)
		}
	}
	return u.repo.CreateRoute(ctx, route)
}

func (u *Usecase) DeleteRoute(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	return u.repo.DeleteRoute(ctx, id)
}

// AssignRoute links a route to a driver and a car. Both must exist.
func (u *Usecase) AssignRoute(ctx context.Context, id string, driverID, carID *string) (*entities.Route, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if driverID != nil {
		if _, err := u.repo.GetUser(ctx, *driverID); err != nil {
			return nil, err
		}
	}
	if carID != nil {
		if _, err := u.repo.GetCar(ctx, *carID); err != nil {
			return nil, err
		}
	}
	return u.repo.AssignRoute(ctx, id, driverID, carID)
}

// RouteStaticMap renders the saved route line, or the straight line
// through its stops when no line was saved.
func (u *Usecase) RouteStaticMap(ctx context.Context, id string, width, height int) (string, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	r, err := u.repo.GetRoute(ctx, id)
	if err != nil {
		return "", err
	}

	fc := []byte(r.GeoJSON)
	if len(fc) == 0 {
		var path []geo.Point
		if r.Origin.HasLocation() {
			path = append(path, *r.Origin.Location)
		}
		for _, s := range r.Stops {
			if s.HasLocation() {
				path = append(path, *s.Location)
			}
		}
		if r.Destination.HasLocation() {
			path = append(path, *r.Destination.Location)
		}
		if len(path) < 2 {
			return "", fmt.Errorf("%w: route %s has no geometry", entities.ErrInvalidArgument, id)
		}
		if fc, err = geo.LineStringFeatureCollection(path, nil); err != nil {
			return "", err
		}
	}
	return u.deps.Maps.StaticImageURL(fc, width, height)
}
