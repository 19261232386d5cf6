package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a directory record. PasswordHash is never serialized; the handler
// converts to Public before writing any response.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Public is the caller-visible projection of a user record.
type Public struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Public returns the projection safe to serialize.
func (u *User) Public() Public {
	return Public{
		ID:       u.ID.String(),
		Username: u.Username,
		Email:    u.Email,
	}
}
