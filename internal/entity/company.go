package entity

import (
	"time"

	"github.com/google/uuid"
)

// Company represents a company profile for data transfer between layers.
type Company struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	Stage     *string   `json:"stage,omitempty"`
	Website   *string   `json:"website,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
