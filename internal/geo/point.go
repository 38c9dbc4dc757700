// Package geo holds the small amount of coordinate math the planner needs.
package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid rejects the null island fix and out-of-range coordinates.
func (p Point) Valid() bool {
	if p.Lat == 0 && p.Lng == 0 {
		return false
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return false
	}
	return true
}

func (p Point) orb() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// String renders "lat,lng" as accepted by the directions API.
func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// Label renders the short "lat, lng" form shown for user locations.
func (p Point) Label() string {
	return fmt.Sprintf("%.4f, %.4f", p.Lat, p.Lng)
}

// Distance returns the great-circle distance in metres.
func Distance(a, b Point) float64 {
	return orbgeo.DistanceHaversine(a.orb(), b.orb())
}

// Viewport is what a map should show for a set of places.
type Viewport struct {
	Center Point  `json:"center"`
	Zoom   int    `json:"zoom,omitempty"`
	Bounds *Bound `json:"bounds,omitempty"`
	// Padding applies to Bounds, in pixels.
	Padding int `json:"padding,omitempty"`
}

type Bound struct {
	SouthWest Point `json:"south_west"`
	NorthEast Point `json:"north_east"`
}

// Bounds returns the smallest rectangle containing every point.
func Bounds(points []Point) (Bound, bool) {
	if len(points) == 0 {
		return Bound{}, false
	}
	mp := make(orb.MultiPoint, 0, len(points))
	for _, p := range points {
		mp = append(mp, p.orb())
	}
	b := mp.Bound()
	return Bound{
		SouthWest: Point{Lat: b.Min.Lat(), Lng: b.Min.Lon()},
		NorthEast: Point{Lat: b.Max.Lat(), Lng: b.Max.Lon()},
	}, true
}

// Center is the midpoint of the rectangle.
func (b Bound) Center() Point {
	return Point{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lng: (b.SouthWest.Lng + b.NorthEast.Lng) / 2,
	}
}
