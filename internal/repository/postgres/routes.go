package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Khangurai/zap-admin/internal/entities"
)

const (
	routeColumns = `id::text, name, driver_id::text, car_id::text, origin, destination, stops, geojson,
    distance_m, duration_s, created_at`

	listRoutesQuery  = `SELECT ` + routeColumns + ` FROM routes ORDER BY created_at DESC`
	getRouteQuery    = `SELECT ` + routeColumns + ` FROM routes WHERE id = $1`
	createRouteQuery = `INSERT INTO routes (name, driver_id, car_id, origin, destination, stops, geojson, distance_m, duration_s)
VALUES ($1, $2::uuid, $3::uuid, $4, $5, $6, $7, $8, $9)
RETURNING ` + routeColumns
	assignRouteQuery = `UPDATE routes SET driver_id = $2::uuid, car_id = $3::uuid
WHERE id = $1
RETURNING ` + routeColumns
	deleteRouteQuery = `DELETE FROM routes WHERE id = $1`
)

func scanRoute(row pgx.Row) (*entities.Route, error) {
	var r entities.Route
	var origin, destination, stops, geojson []byte
	err := row.Scan(&r.ID, &r.Name, &r.DriverID, &r.CarID, &origin, &destination, &stops, &geojson,
		&r.DistanceM, &r.DurationS, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(origin) > 0 {
		if err := json.Unmarshal(origin, &r.Origin); err != nil {
			return nil, fmt.Errorf("decode origin: %w", err)
		}
	}
	if len(destination) > 0 {
		if err := json.Unmarshal(destination, &r.Destination); err != nil {
			return nil, fmt.Errorf("decode destination: %w", err)
		}
	}
	if len(stops) > 0 {
		if err := json.Unmarshal(stops, &r.Stops); err != nil {
			return nil, fmt.Errorf("decode stops: %w", err)
		}
	}
	if r.Stops == nil {
		r.Stops = []entities.Place{}
	}
	if len(geojson) > 0 {
		r.GeoJSON = json.RawMessage(geojson)
	}
	return &r, nil
}

// jsonParam encodes v for a JSONB column, nil for a nil pointer.
func jsonParam[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// ListRoutes returns saved routes newest first.
func (p *Postgres) ListRoutes(ctx context.Context) ([]entities.Route, error) {
	rows, err := p.db.Query(ctx, listRoutesQuery)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	defer rows.Close()

	routes := make([]entities.Route, 0)
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			p.log.Errorw("failed to scan route", "error", err)
			return nil, fmt.Errorf("scan routes: %w", err)
		}
		routes = append(routes, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate routes: %w", err)
	}
	return routes, nil
}

func (p *Postgres) GetRoute(ctx context.Context, id string) (*entities.Route, error) {
	r, err := scanRoute(p.db.QueryRow(ctx, getRouteQuery, id))
	if err != nil {
		return nil, mapErr(err, entities.ErrRouteNotFound, "get route")
	}
	return r, nil
}

func (p *Postgres) CreateRoute(ctx context.Context, route entities.Route) (*entities.Route, error) {
	origin, err := jsonParam(route.Origin)
	if err != nil {
		return nil, fmt.Errorf("encode origin: %w", err)
	}
	destination, err := jsonParam(route.Destination)
	if err != nil {
		return nil, fmt.Errorf("encode destination: %w", err)
	}
	stops := route.Stops
	if stops == nil {
		stops = []entities.Place{}
	}
	stopsRaw, err := json.Marshal(stops)
	if err != nil {
		return nil, fmt.Errorf("encode stops: %w", err)
	}
	var geojson []byte
	if len(route.GeoJSON) > 0 {
		geojson = route.GeoJSON
	}

	r, err := scanRoute(p.db.QueryRow(ctx, createRouteQuery,
		route.Name, route.DriverID, route.CarID, origin, destination, stopsRaw, geojson,
		route.DistanceM, route.DurationS))
	if err != nil {
		p.log.Errorw("failed to create route", "error", err, "name", route.Name)
		return nil, mapErr(err, entities.ErrRouteNotFound, "create route")
	}
	p.log.Infow("route created", "route_id", r.ID, "stops", len(r.Stops))
	return r, nil
}

// AssignRoute sets the driver and car of a route. Nil clears the link.
func (p *Postgres) AssignRoute(ctx context.Context, id string, driverID, carID *string) (*entities.Route, error) {
	r, err := scanRoute(p.db.QueryRow(ctx, assignRouteQuery, id, driverID, carID))
	if err != nil {
		p.log.Errorw("failed to assign route", "error", err, "route_id", id)
		return nil, mapErr(err, entities.ErrRouteNotFound, "assign route")
	}
	p.log.Infow("route assigned", "route_id", id)
	return r, nil
}

func (p *Postgres) DeleteRoute(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, deleteRouteQuery, id)
	if err != nil {
		return mapErr(err, entities.ErrRouteNotFound, "delete route")
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrRouteNotFound
	}
	p.log.Infow("route deleted", "route_id", id)
	return nil
}
