package model

import "time"

// User represents an account (reporter, finder, claimant, or admin).
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email,omitempty"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// IsAdmin reports whether the role carries admin privileges.
func IsAdmin(role string) bool {
	return role == RoleAdmin
}
