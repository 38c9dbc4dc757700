package entities

import (
	"time"

	"github.com/Khangurai/zap-admin/internal/geo"
)

// User is a driver or fleet member shown on the map.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	TeamCode  string    `json:"team_code,omitempty"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	Status    bool      `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Location returns the user's point when both coordinates are set.
func (u User) Location() (geo.Point, bool) {
	if u.Latitude == nil || u.Longitude == nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *u.Latitude, Lng: *u.Longitude}, true
}

// UserFilter narrows ListUsers.
type UserFilter struct {
	Search       string
	WithLocation bool
}
