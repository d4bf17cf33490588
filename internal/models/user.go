package models

import "time"

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account resolved at the request boundary. Authentication flows
// live outside this service; the server only maps an already-issued token to
// a user scope.
type User struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
