package entities

import "time"

type Car struct {
	ID        string    `json:"id"`
	CarNumber string    `json:"car_number"`
	DriverID  *string   `json:"driver_id"`
	ImageURL  string    `json:"image_url,omitempty"`
	Status    bool      `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CarPatch carries the optional fields of an update.
type CarPatch struct {
	CarNumber *string
	DriverID  *string
	ClearDrv  bool
	ImageURL  *string
	Status    *bool
}
