package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Khangurai/zap-admin/internal/entities"
	"github.com/Khangurai/zap-admin/internal/geo"
	"github.com/Khangurai/zap-admin/internal/mapping/google"
	"github.com/Khangurai/zap-admin/internal/store"
)

// Store persists plans as JSON documents with a TTL.
type Store interface {
	SaveJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	LoadJSON(ctx context.Context, key string, v any) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

type DirectionsProvider interface {
	Directions(ctx context.Context, r google.DirectionsRequest) (*google.DirectionsResult, error)
}

type UserLister interface {
	ListUsers(ctx context.Context, filter entities.UserFilter) ([]entities.User, error)
}

type RouteCreator interface {
	CreateRoute(ctx context.Context, route entities.Route) (*entities.Route, error)
}

type Config struct {
	TTL            time.Duration
	DragThresholdM float64
}

type Service struct {
	log      *zap.SugaredLogger
	store    Store
	dirs     DirectionsProvider
	geocoder google.Geocoder
	users    UserLister
	routes   RouteCreator
	cfg      Config
	locks    *keyedMutex
	now      func() time.Time
}

func NewService(
	log *zap.SugaredLogger,
	st Store,
	dirs DirectionsProvider,
	geocoder google.Geocoder,
	users UserLister,
	routes RouteCreator,
	cfg Config,
) *Service {
	return &Service{
		log:      log.Named("planner"),
		store:    st,
		dirs:     dirs,
		geocoder: geocoder,
		users:    users,
		routes:   routes,
		cfg:      cfg,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

/* =======================================================================
                          LOAD / SAVE / MUTATE
======================================================================= */

func (s *Service) load(ctx context.Context, id string) (*Plan, error) {
	var p Plan
	ok, err := s.store.LoadJSON(ctx, store.PlanKey(id), &p)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	if !ok {
		return nil, entities.ErrPlanNotFound
	}
	if p.Waypoints == nil {
		p.Waypoints = []entities.Place{}
	}
	return &p, nil
}

func (s *Service) save(ctx context.Context, p *Plan) error {
	p.UpdatedAt = s.now().UTC()
	p.refreshViewport()
	if err := s.store.SaveJSON(ctx, store.PlanKey(p.ID), p, s.cfg.TTL); err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return nil
}

// mutate runs fn on the stored plan under the plan lock and persists the
// result when fn reports a change.
func (s *Service) mutate(ctx context.Context, id string, fn func(ctx context.Context, p *Plan) (bool, error)) (*Plan, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	changed, err := fn(ctx, p)
	if err != nil {
		return nil, err
	}
	if !changed {
		return p, nil
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// invalidate drops directions that no longer match the plan.
func (p *Plan) invalidate() {
	p.Directions = nil
}

/* =======================================================================
                               LIFECYCLE
======================================================================= */

func (s *Service) Create(ctx context.Context) (*Plan, error) {
	p := newPlan(entities.NewID(), s.now().UTC())
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	s.log.Infow("plan created", "plan_id", p.ID)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Plan, error) {
	return s.load(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, store.PlanKey(id))
}

// Clear resets endpoints, waypoints, directions and the saved GeoJSON.
// Travel mode and the optimize flag are kept.
func (s *Service) Clear(ctx context.Context, id string) (*Plan, error) {
	return s.mutate(ctx, id, func(_ context.Context, p *Plan) (bool, error) {
		p.Origin = nil
		p.Destination = nil
		p.Waypoints = []entities.Place{}
		p.SavedGeoJSON = nil
		p.invalidate()
		return true, nil
	})
}

/* =======================================================================
                               ENDPOINTS
======================================================================= */

func (s *Service) SetOrigin(ctx context.Context, id string, place *entities.Place) (*Plan, error) {
	return s.mutate(ctx, id, func(_ context.Context, p *Plan) (bool, error) {
		if err := validatePlace(place); err != nil {
			return false, err
		}
		p.Origin = place
		p.invalidate()
		return true, nil
	})
}

func (s *Service) SetDestination(ctx context.Context, id string, place *entities.Place) (*Plan, error) {
	return s.mutate(ctx, id, func(_ context.Context, p *Plan) (bool, error) {
		if err := validatePlace(place); err != nil {
			return false, err
		}
		p.Destination = place
		p.invalidate()
		return true, nil
	})
}

func validatePlace(place *entities.Place) error {
	if place.HasLocation() && !place.Location.Valid() {
		return fmt.Errorf("place location %s: %w", place.Location, entities.ErrInvalidArgument)
	}
	return nil
}

/* =======================================================================
                               WAYPOINTS
======================================================================= */

// AddWaypoint appends place with a fresh id. Places without a location
// are ignored.
func (s *Service) AddWaypoint(ctx context.Context, id string, place entities.Place) (*Plan, error) {
	return s.mutate(ctx, id, func(_ context.Context, p *Plan) (bool, error) {
		if !place.HasLocation() {
			return false, nil
		}
		if err := validatePlace(&place); err != nil {
			return false, err
		}
		place.ID = entities.NewID()
		p.Waypoints = append(p.Waypoints, place)
		p.invalidate()
		return true, nil
	})
}

// AddWaypointsFromUsers appends every selected user that has coordinates.
// An empty selection takes all located users.
func (s *Service) AddWaypointsFromUsers(ctx context.Context, id string, userIDs []string) (*Plan, error) {
	return s.mutate(ctx, id, func(ctx context.Context, p *Plan) (bool, error) {
		users, err := s.users.ListUsers(ctx, entities.UserFilter{WithLocation: true})
		if err != nil {
			return false, fmt.Errorf("list users: %w", err)
		}
		selected := make(map[string]bool, len(userIDs))
		for _, uid := range userIDs {
			selected[uid] = true
		}

		added := 0
		for _, u := range users {
			if len(selected) > 0 && !selected[u.ID] {
				continue
			}
			loc, ok := u.Location()
			if !ok {
				continue
			}
			p.Waypoints = append(p.Waypoints, entities.Place{
				ID:               entities.NewID(),
				Name:             u.Name,
				FormattedAddress: loc.Label(),
				Location:         &loc,
			})
			added++
		}
		if added == 0 {
			return false, nil
		}
		p.invalidate()
		s.log.Infow("waypoints added from users", "plan_id", p.ID, "count", added)
		return true, nil
	})
}

// ReorderWaypoints moves the waypoint activeID to the position of overID.
func (s *Service) ReorderWaypoints(ctx context.Context, id, activeID, overID string) (*Plan, error) {
	return s.mutate(ctx, id, func(_ context.Context, p *Plan) (bool, error) {
		if activeID == overID {
			if p.waypointIndex(activeID) < 0 {
				return false, entities.ErrWaypointNotFound
			}
			return false, nil
		}
		from, to := p.waypointIndex(activeID), p.waypointIndex(overID)
		if from < 0 || to < 0 {
			return false, entities.ErrWaypointNotFound
		}
		p.Waypoints = arrayMove(p.Waypoints, from, to)
		p.invalidate()
		return true, nil
	})
}

func (s *Service) RemoveWaypoint(ctx context.Context, id, waypointID string) (*Plan, error) {
	return s.mutate(ctx, id, func(_ context.Context, p *Plan) (bool, error) {
		i := p.waypointIndex(waypointID)
		if i < 0 {
			return false, entities.ErrWaypointNotFound
		}
		p.Waypoints = append(p.Waypoints[:i], p.Waypoints[i+1:]...)
		p.invalidate()
		return true, nil
	})
}

/* =======================================================================
                                 DRAG
======================================================================= */

// relocate applies a marker drag to place. A drag beyond the threshold
// replaces the place with the reverse geocode of pos, keeping its id.
func (s *Service) relocate(ctx context.Context, place *entities.Place, pos geo.Point) (*entities.Place, bool, error) {
	if !place.HasLocation() {
		return place, false, nil
	}
	if !pos.Valid() {
		return nil, false, fmt.Errorf("position %s: %w", pos, entities.ErrInvalidArgument)
	}

	moved := geo.Distance(*place.Location, pos)
	loc := pos
	if moved > s.cfg.DragThresholdM {
		g, err := s.geocoder.ReverseGeocode(ctx, pos)
		if err != nil {
			return nil, false, fmt.Errorf("reverse geocode: %w", err)
		}
		out := *g
		out.ID = place.ID
		out.Location = &loc
		s.log.Infow("place re-geocoded after drag", "moved_m", moved, "name", out.Name)
		return &out, true, nil
	}

	out := *place
	out.Location = &loc
	return &out, true, nil
}

func (s *Service) MoveWaypoint(ctx context.Context, id, waypointID string, pos geo.Point) (*Plan, error) {
	return s.mutate(ctx, id, func(ctx context.Context, p *Plan) (bool, error) {
		i := p.waypointIndex(waypointID)
		if i < 0 {
			return false, entities.ErrWaypointNotFound
		}
		np, changed, err := s.relocate(ctx, &p.Waypoints[i], pos)
		if err != nil || !changed {
			return false, err
		}
		p.Waypoints[i] = *np
		p.invalidate()
		return true, nil
	})
}

func (s *Service) MoveOrigin(ctx context.Context, id string, pos geo.Point) (*Plan, error) {
	return s.mutate(ctx, id, func(ctx context.Context, p *Plan) (bool, error) {
		np, changed, err := s.relocate(ctx, p.Origin, pos)
		if err != nil || !changed {
			return false, err
		}
		p.Origin = np
		p.invalidate()
		return true, nil
	})
}

func (s *Service) MoveDestination(ctx context.Context, id string, pos geo.Point) (*Plan, error) {
	return s.mutate(ctx, id, func(ctx context.Context, p *Plan) (bool, error) {
		np, changed, err := s.relocate(ctx, p.Destination, pos)
		if err != nil || !changed {
			return false, err
		}
		p.Destination = np
		p.invalidate()
		return true, nil
	})
}

/* =======================================================================
                               SETTINGS
======================================================================= */

// UpdateSettings applies the travel mode and the optimize flag under one
// lock. Nil fields are left unchanged; an invalid mode changes nothing.
func (s *Service) UpdateSettings(ctx context.Context, id string, mode *google.TravelMode, optimize *bool) (*Plan, error) {
	if mode != nil {
		parsed, err := google.ParseTravelMode(string(*mode))
		if err != nil {
			return nil, err
		}
		mode = &parsed
	}
	if mode == nil && optimize == nil {
		return s.Get(ctx, id)
	}
	return s.mutate(ctx, id, func(_ context.Context, p *Plan) (bool, error) {
		changed := false
		if mode != nil && p.TravelMode != *mode {
			p.TravelMode = *mode
			changed = true
		}
		if optimize != nil && p.Optimize != *optimize {
			p.Optimize = *optimize
			changed = true
		}
		if changed {
			p.invalidate()
		}
		return changed, nil
	})
}

func (s *Service) SetTravelMode(ctx context.Context, id string, mode google.TravelMode) (*Plan, error) {
	return s.UpdateSettings(ctx, id, &mode, nil)
}

func (s *Service) SetOptimize(ctx context.Context, id string, optimize bool) (*Plan, error) {
	return s.UpdateSettings(ctx, id, nil, &optimize)
}

/* =======================================================================
                              DIRECTIONS
======================================================================= */

// FetchDirections routes origin to destination through every waypoint
// and stores the summary on the plan.
func (s *Service) FetchDirections(ctx context.Context, id string) (*Plan, error) {
	return s.mutate(ctx, id, func(ctx context.Context, p *Plan) (bool, error) {
		if !p.Origin.HasLocation() || !p.Destination.HasLocation() {
			return false, fmt.Errorf("origin and destination are required: %w", entities.ErrInvalidArgument)
		}
		req := google.DirectionsRequest{
			Origin:      *p.Origin.Location,
			Destination: *p.Destination.Location,
			Mode:        p.TravelMode,
			Optimize:    p.Optimize,
		}
		for _, w := range p.Waypoints {
			if w.HasLocation() {
				req.Waypoints = append(req.Waypoints, *w.Location)
			}
		}

		res, err := s.dirs.Directions(ctx, req)
		if err != nil {
			return false, fmt.Errorf("directions: %w", err)
		}
		path, err := geo.DecodePolyline(res.OverviewPolyline)
		if err != nil {
			return false, err
		}
		meters, seconds := res.Totals()
		order := res.WaypointOrder
		if order == nil {
			order = []int{}
		}
		p.Directions = &Directions{
			TotalDistance: geo.FormatKm(meters),
			TotalDuration: geo.FormatMinutes(seconds),
			DurationText:  geo.FormatHoursMinutes(seconds),
			DistanceM:     meters,
			DurationS:     seconds,
			Legs:          res.Legs,
			WaypointOrder: order,
			Path:          path,
		}
		p.Directions.Markers = p.markers()
		s.log.Infow("directions fetched", "plan_id", p.ID, "legs", len(res.Legs), "distance_m", meters)
		return true, nil
	})
}

// ApplyOptimizedOrder rewrites the waypoint list into the optimised visit
// order and clears the stored order.
func (s *Service) ApplyOptimizedOrder(ctx context.Context, id string) (*Plan, error) {
	return s.mutate(ctx, id, func(_ context.Context, p *Plan) (bool, error) {
		if p.Directions == nil || len(p.Directions.WaypointOrder) == 0 {
			return false, nil
		}
		if len(p.Directions.WaypointOrder) != len(p.Waypoints) {
			return false, fmt.Errorf("waypoint order does not match %d waypoints: %w", len(p.Waypoints), entities.ErrInvalidArgument)
		}
		p.Waypoints = p.orderedWaypoints()
		p.Directions.WaypointOrder = []int{}
		p.Directions.Markers = p.markers()
		return true, nil
	})
}

// SaveRouteGeoJSON snapshots the overview path. Without directions it is
// a no-op.
func (s *Service) SaveRouteGeoJSON(ctx context.Context, id string) (*Plan, error) {
	return s.mutate(ctx, id, func(_ context.Context, p *Plan) (bool, error) {
		if p.Directions == nil || len(p.Directions.Path) == 0 {
			return false, nil
		}
		fc, err := geo.LineStringFeatureCollection(p.Directions.Path, nil)
		if err != nil {
			return false, err
		}
		p.SavedGeoJSON = fc
		return true, nil
	})
}

func (s *Service) MapsURL(ctx context.Context, id string) (string, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	u, ok := p.MapsURL()
	if !ok {
		return "", fmt.Errorf("origin and destination are required: %w", entities.ErrInvalidArgument)
	}
	return u, nil
}

/* =======================================================================
                                PERSIST
======================================================================= */

// Persist stores the plan as a saved route. The saved GeoJSON is used
// when present, otherwise the current overview path.
func (s *Service) Persist(ctx context.Context, id, name string, driverID, carID *string) (*entities.Route, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("route name is required: %w", entities.ErrInvalidArgument)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Origin.HasLocation() || !p.Destination.HasLocation() {
		return nil, fmt.Errorf("origin and destination are required: %w", entities.ErrInvalidArgument)
	}

	route := entities.Route{
		Name:        name,
		DriverID:    driverID,
		CarID:       carID,
		Origin:      p.Origin,
		Destination: p.Destination,
		Stops:       p.orderedWaypoints(),
		GeoJSON:     p.SavedGeoJSON,
	}
	if p.Directions != nil {
		route.DistanceM = p.Directions.DistanceM
		route.DurationS = p.Directions.DurationS
		if len(route.GeoJSON) == 0 && len(p.Directions.Path) > 0 {
			fc, err := geo.LineStringFeatureCollection(p.Directions.Path, nil)
			if err != nil {
				return nil, err
			}
			route.GeoJSON = fc
		}
	}

	saved, err := s.routes.CreateRoute(ctx, route)
	if err != nil {
		return nil, fmt.Errorf("create route: %w", err)
	}
	s.log.Infow("plan persisted", "plan_id", id, "route_id", saved.ID)
	return saved, nil
}
