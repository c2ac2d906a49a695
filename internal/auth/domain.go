package auth

import "time"

// User represents a staff account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsActive     bool
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
