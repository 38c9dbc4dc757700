package entities

import "time"

// Profile is the admin account record keyed by the auth user id.
type Profile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Username  string    `json:"username,omitempty"`
	AvatarURL *string   `json:"avatar_url"`
	Role      string    `json:"role,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
