package model

import (
	"time"

	"github.com/google/uuid"
)

// Account is a named container of transactions owned by one user.
type Account struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	CreatedAt time.Time
}
