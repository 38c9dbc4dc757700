package entities

import (
	"encoding/json"
	"time"
)

// Route is a planned route saved for a driver and car.
type Route struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	DriverID    *string         `json:"driver_id"`
	CarID       *string         `json:"car_id"`
	Origin      *Place          `json:"origin"`
	Destination *Place          `json:"destination"`
	Stops       []Place         `json:"stops"`
	GeoJSON     json.RawMessage `json:"geojson,omitempty"`
	DistanceM   int             `json:"distance_m"`
	DurationS   int             `json:"duration_s"`
	CreatedAt   time.Time       `json:"created_at"`
}
