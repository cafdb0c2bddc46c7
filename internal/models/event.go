package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a gathering an organizer owns. Guests and photos belong to exactly
// one event.
type Event struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Date      time.Time `json:"date" db:"date"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// OwnedBy reports whether the organizer identified by ownerID owns the event.
func (e *Event) OwnedBy(ownerID string) bool {
	return ownerID != "" && e.OwnerID == ownerID
}
