package models

import "time"

// User roles. Restocking requires the Admin role; event managers default to Manager.
const (
	RoleAdmin   = "Admin"
	RoleManager = "Manager"
)

// User represents an authenticated account. Every domain record is scoped to
// its owning user; reads and writes always filter on the owner id.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"full_name" db:"full_name"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsValidRole checks if the provided role string is a known role.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager:
		return true
	default:
		return false
	}
}
