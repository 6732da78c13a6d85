package models

import (
	"time"

	"github.com/google/uuid"
)

type Person struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Name      string
	Phone     string
	Birth     string
	Gender    string
	Address1  string
	Address2  string
}
