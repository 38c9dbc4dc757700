// Package planner coordinates an interactive route plan: endpoints, an
// ordered waypoint list and the directions computed for them.
package planner

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Khangurai/zap-admin/internal/entities"
	"github.com/Khangurai/zap-admin/internal/geo"
	"github.com/Khangurai/zap-admin/internal/mapping/google"
)

const (
	mapsDirBase   = "https://www.google.com/maps/dir/"
	focusZoom     = 15
	defaultZoom   = 12
	boundsPadding = 80
)

// DefaultCenter is shown when the plan has no endpoints.
var DefaultCenter = geo.Point{Lat: 16.8409, Lng: 96.1735}

type Plan struct {
	ID          string            `json:"id"`
	Origin      *entities.Place   `json:"origin"`
	Destination *entities.Place   `json:"destination"`
	Waypoints   []entities.Place  `json:"waypoints"`
	TravelMode  google.TravelMode `json:"travel_mode"`
	Optimize    bool              `json:"optimize"`
	Directions  *Directions       `json:"directions"`

	// SavedGeoJSON is the last route exported as a FeatureCollection.
	SavedGeoJSON json.RawMessage `json:"saved_geojson,omitempty"`
	Viewport     *geo.Viewport   `json:"viewport"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Directions is the summary of the last directions response.
type Directions struct {
	TotalDistance string       `json:"total_distance"`
	TotalDuration string       `json:"total_duration"`
	DurationText  string       `json:"duration_text"`
	DistanceM     int          `json:"distance_m"`
	DurationS     int          `json:"duration_s"`
	Legs          []google.Leg `json:"legs"`

	// WaypointOrder maps visit position to index in Waypoints.
	WaypointOrder []int       `json:"waypoint_order"`
	Path          []geo.Point `json:"path"`
	Markers       []Marker    `json:"markers"`
}

// Marker is a labelled pin: "O", "1".."n", "D".
type Marker struct {
	Label    string    `json:"label"`
	Position geo.Point `json:"position"`
	Name     string    `json:"name,omitempty"`
}

func newPlan(id string, now time.Time) *Plan {
	p := &Plan{
		ID:         id,
		Waypoints:  []entities.Place{},
		TravelMode: google.Driving,
		Optimize:   true,
		UpdatedAt:  now,
	}
	p.refreshViewport()
	return p
}

func (p *Plan) waypointIndex(id string) int {
	for i := range p.Waypoints {
		if p.Waypoints[i].ID == id {
			return i
		}
	}
	return -1
}

// orderedWaypoints applies the stored waypoint order, if any, and skips
// indexes that no longer exist.
func (p *Plan) orderedWaypoints() []entities.Place {
	if p.Directions == nil || len(p.Directions.WaypointOrder) == 0 {
		return p.Waypoints
	}
	out := make([]entities.Place, 0, len(p.Waypoints))
	for _, idx := range p.Directions.WaypointOrder {
		if idx >= 0 && idx < len(p.Waypoints) {
			out = append(out, p.Waypoints[idx])
		}
	}
	return out
}

func (p *Plan) markers() []Marker {
	var out []Marker
	if p.Origin.HasLocation() {
		out = append(out, Marker{Label: "O", Position: *p.Origin.Location, Name: p.Origin.Name})
	}
	n := 0
	for _, w := range p.orderedWaypoints() {
		if !w.HasLocation() {
			continue
		}
		n++
		out = append(out, Marker{Label: strconv.Itoa(n), Position: *w.Location, Name: w.Name})
	}
	if p.Destination.HasLocation() {
		out = append(out, Marker{Label: "D", Position: *p.Destination.Location, Name: p.Destination.Name})
	}
	return out
}

// MapsURL builds a shareable directions link. ok is false without both
// endpoints.
func (p *Plan) MapsURL() (string, bool) {
	if !p.Origin.HasLocation() || !p.Destination.HasLocation() {
		return "", false
	}
	var b strings.Builder
	b.WriteString(mapsDirBase)
	b.WriteString(url.PathEscape(p.Origin.Location.String()))
	b.WriteByte('/')
	for _, w := range p.orderedWaypoints() {
		if !w.HasLocation() {
			continue
		}
		b.WriteString(url.PathEscape(w.Location.String()))
		b.WriteByte('/')
	}
	b.WriteString(url.PathEscape(p.Destination.Location.String()))
	b.WriteByte('/')
	return b.String(), true
}

func (p *Plan) refreshViewport() {
	switch {
	case p.Origin.HasLocation() && p.Destination.HasLocation():
		pts := []geo.Point{*p.Origin.Location, *p.Destination.Location}
		for _, w := range p.Waypoints {
			if w.HasLocation() {
				pts = append(pts, *w.Location)
			}
		}
		b, _ := geo.Bounds(pts)
		p.Viewport = &geo.Viewport{Center: b.Center(), Bounds: &b, Padding: boundsPadding}
	case p.Origin.HasLocation():
		p.Viewport = &geo.Viewport{Center: *p.Origin.Location, Zoom: focusZoom}
	case p.Destination.HasLocation():
		p.Viewport = &geo.Viewport{Center: *p.Destination.Location, Zoom: focusZoom}
	default:
		p.Viewport = &geo.Viewport{Center: DefaultCenter, Zoom: defaultZoom}
	}
}

// arrayMove moves the element at from to index to, shifting the rest.
func arrayMove[T any](s []T, from, to int) []T {
	out := make([]T, 0, len(s))
	out = append(out, s...)
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return out
}
