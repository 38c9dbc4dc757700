package planner

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Khangurai/zap-admin/internal/entities"
	"github.com/Khangurai/zap-admin/internal/geo"
	"github.com/Khangurai/zap-admin/internal/mapping/google"
	"github.com/Khangurai/zap-admin/internal/store"
)

type directionsMock struct{ mock.Mock }

func (m *directionsMock) Directions(ctx context.Context, r google.DirectionsRequest) (*google.DirectionsResult, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*google.DirectionsResult), args.Error(1)
}

type geocoderMock struct{ mock.Mock }

func (m *geocoderMock) ReverseGeocode(ctx context.Context, p geo.Point) (*entities.Place, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Place), args.Error(1)
}

type usersStub struct{ users []entities.User }

func (u usersStub) ListUsers(_ context.Context, _ entities.UserFilter) ([]entities.User, error) {
	return u.users, nil
}

type routesStub struct {
	mu    sync.Mutex
	saved []entities.Route
}

func (r *routesStub) CreateRoute(_ context.Context, route entities.Route) (*entities.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	route.ID = "route-1"
	r.saved = append(r.saved, route)
	return &route, nil
}

type fixture struct {
	svc    *Service
	dirs   *directionsMock
	geo    *geocoderMock
	routes *routesStub
	mr     *miniredis.Miniredis
}

func newFixture(t *testing.T, users ...entities.User) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := &fixture{
		dirs:   &directionsMock{},
		geo:    &geocoderMock{},
		routes: &routesStub{},
		mr:     mr,
	}
	f.svc = NewService(zap.NewNop().Sugar(), store.NewRedis(rdb), f.dirs, f.geo,
		usersStub{users: users}, f.routes, Config{TTL: time.Hour, DragThresholdM: 52.75})
	t.Cleanup(func() {
		f.dirs.AssertExpectations(t)
		f.geo.AssertExpectations(t)
	})
	return f
}

func pt(lat, lng float64) *geo.Point { return &geo.Point{Lat: lat, Lng: lng} }

func place(name string, lat, lng float64) entities.Place {
	return entities.Place{Name: name, FormattedAddress: name + " St", Location: pt(lat, lng)}
}

func (f *fixture) planWith(t *testing.T, waypoints ...entities.Place) *Plan {
	t.Helper()
	ctx := context.Background()
	p, err := f.svc.Create(ctx)
	require.NoError(t, err)
	origin := place("Depot", 16.7700, 96.1700)
	dest := place("Market", 16.7900, 96.1900)
	_, err = f.svc.SetOrigin(ctx, p.ID, &origin)
	require.NoError(t, err)
	_, err = f.svc.SetDestination(ctx, p.ID, &dest)
	require.NoError(t, err)
	for _, w := range waypoints {
		p, err = f.svc.AddWaypoint(ctx, p.ID, w)
		require.NoError(t, err)
	}
	p, err = f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	return p
}

func names(ws []entities.Place) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Name)
	}
	return out
}

func TestCreateDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	require.Equal(t, google.Driving, p.TravelMode)
	require.True(t, p.Optimize)
	require.Empty(t, p.Waypoints)
	require.Equal(t, DefaultCenter, p.Viewport.Center)
	require.Equal(t, 12, p.Viewport.Zoom)

	require.True(t, f.mr.Exists(store.PlanKey(p.ID)))
	require.Equal(t, time.Hour, f.mr.TTL(store.PlanKey(p.ID)))

	_, err = f.svc.Get(ctx, "missing")
	require.ErrorIs(t, err, entities.ErrPlanNotFound)
}

func TestAddWaypoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx)
	require.NoError(t, err)

	p, err = f.svc.AddWaypoint(ctx, p.ID, entities.Place{Name: "nowhere"})
	require.NoError(t, err)
	require.Empty(t, p.Waypoints)

	p, err = f.svc.AddWaypoint(ctx, p.ID, place("A", 16.771, 96.171))
	require.NoError(t, err)
	p, err = f.svc.AddWaypoint(ctx, p.ID, place("B", 16.772, 96.172))
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, names(p.Waypoints))
	require.NotEmpty(t, p.Waypoints[0].ID)
	require.NotEqual(t, p.Waypoints[0].ID, p.Waypoints[1].ID)

	_, err = f.svc.AddWaypoint(ctx, p.ID, place("bad", 95, 10))
	require.ErrorIs(t, err, entities.ErrInvalidArgument)
}

func TestAddWaypointsFromUsers(t *testing.T) {
	lat, lng := 16.77654, 96.17101
	f := newFixture(t,
		entities.User{ID: "u1", Name: "Aung", Latitude: &lat, Longitude: &lng},
		entities.User{ID: "u2", Name: "Kyaw", Latitude: &lat, Longitude: &lng},
		entities.User{ID: "u3", Name: "NoGPS"},
	)
	ctx := context.Background()
	p, err := f.svc.Create(ctx)
	require.NoError(t, err)

	p, err = f.svc.AddWaypointsFromUsers(ctx, p.ID, []string{"u2", "u3"})
	require.NoError(t, err)
	require.Equal(t, []string{"Kyaw"}, names(p.Waypoints))
	require.Equal(t, "16.7765, 96.1710", p.Waypoints[0].FormattedAddress)

	p, err = f.svc.AddWaypointsFromUsers(ctx, p.ID, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"Kyaw", "Aung", "Kyaw"}, names(p.Waypoints))
}

func TestReorderWaypoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.planWith(t, place("A", 16.771, 96.171), place("B", 16.772, 96.172), place("C", 16.773, 96.173))
	a, c := p.Waypoints[0].ID, p.Waypoints[2].ID

	p, err := f.svc.ReorderWaypoints(ctx, p.ID, a, c)
	require.NoError(t, err)
	require.Equal(t, []string{"B", "C", "A"}, names(p.Waypoints))

	p, err = f.svc.ReorderWaypoints(ctx, p.ID, a, p.Waypoints[0].ID)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C"}, names(p.Waypoints))

	p, err = f.svc.ReorderWaypoints(ctx, p.ID, a, a)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C"}, names(p.Waypoints))

	_, err = f.svc.ReorderWaypoints(ctx, p.ID, a, "ghost")
	require.ErrorIs(t, err, entities.ErrWaypointNotFound)
}

func TestRemoveWaypoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.planWith(t, place("A", 16.771, 96.171), place("B", 16.772, 96.172))

	p, err := f.svc.RemoveWaypoint(ctx, p.ID, p.Waypoints[0].ID)
	require.NoError(t, err)
	require.Equal(t, []string{"B"}, names(p.Waypoints))

	_, err = f.svc.RemoveWaypoint(ctx, p.ID, "ghost")
	require.ErrorIs(t, err, entities.ErrWaypointNotFound)
}

func TestMoveWaypointWithinThresholdKeepsPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.planWith(t, place("A", 16.7710, 96.1710))
	id := p.Waypoints[0].ID

	// ~11 m north
	p, err := f.svc.MoveWaypoint(ctx, p.ID, id, geo.Point{Lat: 16.7711, Lng: 96.1710})
	require.NoError(t, err)
	w := p.Waypoints[0]
	require.Equal(t, id, w.ID)
	require.Equal(t, "A", w.Name)
	require.Equal(t, "A St", w.FormattedAddress)
	require.Equal(t, 16.7711, w.Location.Lat)
}

func TestMoveWaypointBeyondThresholdRegeocodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.planWith(t, place("A", 16.7710, 96.1710))
	id := p.Waypoints[0].ID
	target := geo.Point{Lat: 16.7730, Lng: 96.1710} // ~220 m

	f.geo.On("ReverseGeocode", mock.Anything, target).Return(&entities.Place{
		Name:             "Sule Pagoda Rd",
		FormattedAddress: "Sule Pagoda Rd, Yangon",
		PlaceID:          "gp-1",
		Location:         pt(16.77301, 96.17102),
	}, nil).Once()

	p, err := f.svc.MoveWaypoint(ctx, p.ID, id, target)
	require.NoError(t, err)
	w := p.Waypoints[0]
	require.Equal(t, id, w.ID)
	require.Equal(t, "Sule Pagoda Rd", w.Name)
	require.Equal(t, "gp-1", w.PlaceID)
	require.Equal(t, target, *w.Location)
}

func TestMoveGeocodeFailureLeavesPlanUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.planWith(t, place("A", 16.7710, 96.1710))
	id := p.Waypoints[0].ID

	f.geo.On("ReverseGeocode", mock.Anything, mock.Anything).Return(nil, entities.ErrGeocodeFailed).Once()

	_, err := f.svc.MoveOrigin(ctx, p.ID, geo.Point{Lat: 16.7800, Lng: 96.1700})
	require.ErrorIs(t, err, entities.ErrGeocodeFailed)

	after, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Depot", after.Origin.Name)
	require.Equal(t, 16.77, after.Origin.Location.Lat)
	require.Equal(t, id, after.Waypoints[0].ID)
}

func TestMoveWithoutEndpointIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx)
	require.NoError(t, err)

	p, err = f.svc.MoveDestination(ctx, p.ID, geo.Point{Lat: 16.78, Lng: 96.17})
	require.NoError(t, err)
	require.Nil(t, p.Destination)
}

func TestSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx)
	require.NoError(t, err)

	p, err = f.svc.SetTravelMode(ctx, p.ID, google.Walking)
	require.NoError(t, err)
	require.Equal(t, google.Walking, p.TravelMode)

	_, err = f.svc.SetTravelMode(ctx, p.ID, "FLYING")
	require.ErrorIs(t, err, entities.ErrInvalidArgument)

	p, err = f.svc.SetOptimize(ctx, p.ID, false)
	require.NoError(t, err)
	require.False(t, p.Optimize)
}

func TestUpdateSettingsAppliesTogether(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx)
	require.NoError(t, err)

	walking := google.TravelMode("walking")
	off := false
	p, err = f.svc.UpdateSettings(ctx, p.ID, &walking, &off)
	require.NoError(t, err)
	require.Equal(t, google.Walking, p.TravelMode)
	require.False(t, p.Optimize)

	flying := google.TravelMode("FLYING")
	on := true
	_, err = f.svc.UpdateSettings(ctx, p.ID, &flying, &on)
	require.ErrorIs(t, err, entities.ErrInvalidArgument)

	p, err = f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, google.Walking, p.TravelMode)
	require.False(t, p.Optimize)

	same, err := f.svc.UpdateSettings(ctx, p.ID, nil, nil)
	require.NoError(t, err)
	require.Equal(t, p.UpdatedAt, same.UpdatedAt)
}

func directionsFor(path []geo.Point, order []int) *google.DirectionsResult {
	return &google.DirectionsResult{
		Legs: []google.Leg{
			{DistanceM: 1000, DurationS: 600},
			{DistanceM: 2000, DurationS: 200},
			{DistanceM: 500, DurationS: 100},
		},
		WaypointOrder:    order,
		OverviewPolyline: geo.EncodePolyline(path),
	}
}

func TestFetchDirections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.svc.Create(ctx)
	require.NoError(t, err)
	_, err = f.svc.FetchDirections(ctx, empty.ID)
	require.ErrorIs(t, err, entities.ErrInvalidArgument)

	p := f.planWith(t, place("A", 16.771, 96.171), place("B", 16.772, 96.172))
	path := []geo.Point{{Lat: 16.77, Lng: 96.17}, {Lat: 16.78, Lng: 96.18}, {Lat: 16.79, Lng: 96.19}}

	f.dirs.On("Directions", mock.Anything, mock.MatchedBy(func(r google.DirectionsRequest) bool {
		return r.Optimize && r.Mode == google.Driving && len(r.Waypoints) == 2 && r.Origin.Lat == 16.77
	})).Return(directionsFor(path, []int{1, 0}), nil).Once()

	p, err = f.svc.FetchDirections(ctx, p.ID)
	require.NoError(t, err)
	d := p.Directions
	require.NotNil(t, d)
	require.Equal(t, "3.50 km", d.TotalDistance)
	require.Equal(t, "15.00 min", d.TotalDuration)
	require.Equal(t, "0 hours 15 minutes", d.DurationText)
	require.Equal(t, []int{1, 0}, d.WaypointOrder)
	require.Len(t, d.Path, 3)
	require.InDelta(t, 16.78, d.Path[1].Lat, 1e-5)

	labels := make([]string, 0, len(d.Markers))
	for _, m := range d.Markers {
		labels = append(labels, m.Label+":"+m.Name)
	}
	require.Equal(t, []string{"O:Depot", "1:B", "2:A", "D:Market"}, labels)

	u, err := f.svc.MapsURL(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "https://www.google.com/maps/dir/16.770000%2C96.170000/16.772000%2C96.172000/16.771000%2C96.171000/16.790000%2C96.190000/", u)

	// structural edits drop stale directions
	p, err = f.svc.RemoveWaypoint(ctx, p.ID, p.Waypoints[0].ID)
	require.NoError(t, err)
	require.Nil(t, p.Directions)
}

func TestFetchDirectionsProviderError(t *testing.T) {
	f := newFixture(t)
	p := f.planWith(t)
	f.dirs.On("Directions", mock.Anything, mock.Anything).Return(nil, entities.ErrNoRoute).Once()

	_, err := f.svc.FetchDirections(context.Background(), p.ID)
	require.ErrorIs(t, err, entities.ErrNoRoute)
}

func TestApplyOptimizedOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.planWith(t, place("A", 16.771, 96.171), place("B", 16.772, 96.172), place("C", 16.773, 96.173))

	f.dirs.On("Directions", mock.Anything, mock.Anything).
		Return(directionsFor([]geo.Point{{Lat: 16.77, Lng: 96.17}, {Lat: 16.79, Lng: 96.19}}, []int{2, 0, 1}), nil).Once()
	_, err := f.svc.FetchDirections(ctx, p.ID)
	require.NoError(t, err)

	p, err = f.svc.ApplyOptimizedOrder(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"C", "A", "B"}, names(p.Waypoints))
	require.Empty(t, p.Directions.WaypointOrder)
	require.Equal(t, "C", p.Directions.Markers[1].Name)

	// second apply has nothing to do
	p, err = f.svc.ApplyOptimizedOrder(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"C", "A", "B"}, names(p.Waypoints))
}

func TestSaveRouteGeoJSONAndPersist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.planWith(t, place("A", 16.771, 96.171), place("B", 16.772, 96.172))

	p, err := f.svc.SaveRouteGeoJSON(ctx, p.ID)
	require.NoError(t, err)
	require.Empty(t, p.SavedGeoJSON)

	path := []geo.Point{{Lat: 16.77, Lng: 96.17}, {Lat: 16.79, Lng: 96.19}}
	f.dirs.On("Directions", mock.Anything, mock.Anything).Return(directionsFor(path, []int{1, 0}), nil).Once()
	_, err = f.svc.FetchDirections(ctx, p.ID)
	require.NoError(t, err)

	p, err = f.svc.SaveRouteGeoJSON(ctx, p.ID)
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string       `json:"type"`
				Coordinates [][2]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(p.SavedGeoJSON, &fc))
	require.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	require.Equal(t, "LineString", fc.Features[0].Geometry.Type)
	require.InDelta(t, 96.17, fc.Features[0].Geometry.Coordinates[0][0], 1e-5)
	require.InDelta(t, 16.77, fc.Features[0].Geometry.Coordinates[0][1], 1e-5)

	driver := "u-1"
	_, err = f.svc.Persist(ctx, p.ID, "  ", nil, nil)
	require.ErrorIs(t, err, entities.ErrInvalidArgument)

	route, err := f.svc.Persist(ctx, p.ID, "Morning run", &driver, nil)
	require.NoError(t, err)
	require.Equal(t, "route-1", route.ID)
	require.Len(t, f.routes.saved, 1)
	saved := f.routes.saved[0]
	require.Equal(t, []string{"B", "A"}, names(saved.Stops))
	require.Equal(t, 3500, saved.DistanceM)
	require.Equal(t, "Depot", saved.Origin.Name)
	require.JSONEq(t, string(p.SavedGeoJSON), string(saved.GeoJSON))
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.planWith(t, place("A", 16.771, 96.171))
	_, err := f.svc.SetTravelMode(ctx, p.ID, google.Bicycling)
	require.NoError(t, err)

	p, err = f.svc.Clear(ctx, p.ID)
	require.NoError(t, err)
	require.Nil(t, p.Origin)
	require.Nil(t, p.Destination)
	require.Empty(t, p.Waypoints)
	require.Nil(t, p.Directions)
	require.Equal(t, google.Bicycling, p.TravelMode)

	_, err = f.svc.MapsURL(ctx, p.ID)
	require.ErrorIs(t, err, entities.ErrInvalidArgument)
}

func TestViewport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx)
	require.NoError(t, err)

	origin := place("Depot", 16.77, 96.17)
	p, err = f.svc.SetOrigin(ctx, p.ID, &origin)
	require.NoError(t, err)
	require.Equal(t, geo.Point{Lat: 16.77, Lng: 96.17}, p.Viewport.Center)
	require.Equal(t, 15, p.Viewport.Zoom)
	require.Nil(t, p.Viewport.Bounds)

	dest := place("Market", 16.79, 96.19)
	_, err = f.svc.SetDestination(ctx, p.ID, &dest)
	require.NoError(t, err)
	p, err = f.svc.AddWaypoint(ctx, p.ID, place("Far", 16.70, 96.25))
	require.NoError(t, err)
	require.NotNil(t, p.Viewport.Bounds)
	require.Equal(t, geo.Point{Lat: 16.70, Lng: 96.17}, p.Viewport.Bounds.SouthWest)
	require.Equal(t, geo.Point{Lat: 16.79, Lng: 96.25}, p.Viewport.Bounds.NorthEast)
	require.Equal(t, 80, p.Viewport.Padding)
}

func TestConcurrentEditsAreSerialised(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.AddWaypoint(ctx, p.ID, place("W", 16.7+float64(i)/1000, 96.17))
			if err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	p, err = f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, p.Waypoints, 20)
	require.Empty(t, f.svc.locks.locks)
}

func TestDeletePlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, p.ID))
	require.True(t, errors.Is(f.svc.Delete(ctx, p.ID), entities.ErrPlanNotFound))
}

func TestArrayMove(t *testing.T) {
	in := []int{0, 1, 2, 3}
	require.Equal(t, []int{1, 2, 0, 3}, arrayMove(in, 0, 2))
	require.Equal(t, []int{3, 0, 1, 2}, arrayMove(in, 3, 0))
	require.Equal(t, []int{0, 1, 2, 3}, in)
}
