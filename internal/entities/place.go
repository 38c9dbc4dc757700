package entities

import "github.com/Khangurai/zap-admin/internal/geo"

// Place is a resolved location: an endpoint or a waypoint of a plan.
type Place struct {
	ID               string     `json:"id,omitempty"`
	Name             string     `json:"name,omitempty"`
	FormattedAddress string     `json:"formatted_address,omitempty"`
	PlaceID          string     `json:"place_id,omitempty"`
	Location         *geo.Point `json:"location,omitempty"`
}

// HasLocation reports whether the place can be routed to.
func (p *Place) HasLocation() bool {
	return p != nil && p.Location != nil
}
