package domain

import "time"

// GuestEmail marks the synthetic demo account. The guest is excluded from
// aggregate statistics and from directory listings.
const GuestEmail = "guest@example.com"

// User is the read-only profile projection consumed by the matching core.
// Profiles are owned by the external identity system; this service never
// mutates them.
type User struct {
	ID          string
	Name        string
	Email       string
	Skill       string
	Hobbies     string
	Description string
	IsGuest     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
