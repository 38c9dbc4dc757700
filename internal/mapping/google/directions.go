package google

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Khangurai/zap-admin/internal/entities"
	"github.com/Khangurai/zap-admin/internal/geo"
)

type TravelMode string

const (
	Driving   TravelMode = "DRIVING"
	Walking   TravelMode = "WALKING"
	Bicycling TravelMode = "BICYCLING"
	Transit   TravelMode = "TRANSIT"
)

// ParseTravelMode accepts the upper-case names used by the maps SDK.
func ParseTravelMode(s string) (TravelMode, error) {
	switch m := TravelMode(strings.ToUpper(s)); m {
	case Driving, Walking, Bicycling, Transit:
		return m, nil
	}
	return "", fmt.Errorf("travel mode %q: %w", s, entities.ErrInvalidArgument)
}

type DirectionsRequest struct {
	Origin      geo.Point
	Destination geo.Point
	// Waypoints are all requested as stopovers.
	Waypoints []geo.Point
	Mode      TravelMode
	Optimize  bool
}

type Leg struct {
	StartAddress  string    `json:"start_address"`
	EndAddress    string    `json:"end_address"`
	StartLocation geo.Point `json:"start_location"`
	EndLocation   geo.Point `json:"end_location"`
	DistanceM     int       `json:"distance_m"`
	DistanceText  string    `json:"distance_text"`
	DurationS     int       `json:"duration_s"`
	DurationText  string    `json:"duration_text"`
}

type DirectionsResult struct {
	Legs             []Leg  `json:"legs"`
	WaypointOrder    []int  `json:"waypoint_order"`
	OverviewPolyline string `json:"overview_polyline"`
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Legs []struct {
			StartAddress  string    `json:"start_address"`
			EndAddress    string    `json:"end_address"`
			StartLocation latLng    `json:"start_location"`
			EndLocation   latLng    `json:"end_location"`
			Distance      textValue `json:"distance"`
			Duration      textValue `json:"duration"`
		} `json:"legs"`
		WaypointOrder    []int `json:"waypoint_order"`
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
	} `json:"routes"`
}

// Directions returns the first route for the request.
func (c *Client) Directions(ctx context.Context, r DirectionsRequest) (*DirectionsResult, error) {
	mode := r.Mode
	if mode == "" {
		mode = Driving
	}
	q := url.Values{}
	q.Set("origin", r.Origin.String())
	q.Set("destination", r.Destination.String())
	q.Set("mode", strings.ToLower(string(mode)))
	if len(r.Waypoints) > 0 {
		parts := make([]string, 0, len(r.Waypoints)+1)
		if r.Optimize {
			parts = append(parts, "optimize:true")
		}
		for _, w := range r.Waypoints {
			parts = append(parts, w.String())
		}
		q.Set("waypoints", strings.Join(parts, "|"))
	}

	var resp directionsResponse
	if err := c.get(ctx, "directions", "/maps/api/directions/json", q, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" || len(resp.Routes) == 0 {
		return nil, fmt.Errorf("directions status %s %s: %w", resp.Status, resp.ErrorMessage, entities.ErrNoRoute)
	}

	route := resp.Routes[0]
	out := &DirectionsResult{
		Legs:             make([]Leg, 0, len(route.Legs)),
		WaypointOrder:    route.WaypointOrder,
		OverviewPolyline: route.OverviewPolyline.Points,
	}
	if out.WaypointOrder == nil {
		out.WaypointOrder = []int{}
	}
	for _, l := range route.Legs {
		out.Legs = append(out.Legs, Leg{
			StartAddress:  l.StartAddress,
			EndAddress:    l.EndAddress,
			StartLocation: l.StartLocation.point(),
			EndLocation:   l.EndLocation.point(),
			DistanceM:     l.Distance.Value,
			DistanceText:  l.Distance.Text,
			DurationS:     l.Duration.Value,
			DurationText:  l.Duration.Text,
		})
	}
	return out, nil
}

// Totals sums distance and duration over all legs.
func (r *DirectionsResult) Totals() (meters, seconds int) {
	for _, l := range r.Legs {
		meters += l.DistanceM
		seconds += l.DurationS
	}
	return meters, seconds
}
