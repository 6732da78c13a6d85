package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	Email     string
	Name      string

	// nil for social-only accounts that never set a password
	PasswordHash *string

	Picture  string
	Provider string
	Role     Role
}
