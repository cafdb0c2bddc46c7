package models

import (
	"time"

	"github.com/google/uuid"
)

type Photo struct {
	ID      uuid.UUID `json:"id" db:"id"`
	URL     string    `json:"url" db:"url"`
	EventID uuid.UUID `json:"event_id" db:"event_id"`
	// TakenAt is the EXIF capture time, when the upload carried one.
	TakenAt   *time.Time `json:"taken_at,omitempty" db:"taken_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// BoundingBox is a face location as ratios of the image width and height.
type BoundingBox struct {
	Left   float32 `json:"left"`
	Top    float32 `json:"top"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// PhotoFace records one face indexed out of a photo.
type PhotoFace struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	PhotoID     uuid.UUID   `json:"photo_id" db:"photo_id"`
	FaceID      string      `json:"face_id" db:"face_id"`
	Confidence  float32     `json:"confidence" db:"confidence"`
	BoundingBox BoundingBox `json:"bounding_box" db:"bounding_box"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// PhotoMatch links a guest to a photo their face appears in. At most one
// exists per (guest, photo) pair.
type PhotoMatch struct {
	ID         uuid.UUID `json:"id" db:"id"`
	PhotoID    uuid.UUID `json:"photo_id" db:"photo_id"`
	GuestID    uuid.UUID `json:"guest_id" db:"guest_id"`
	Confidence float32   `json:"confidence" db:"confidence"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// MatchNotice is published after a reconciliation pass creates new matches.
type MatchNotice struct {
	EventID   uuid.UUID   `json:"event_id"`
	GuestID   uuid.UUID   `json:"guest_id"`
	PhotoIDs  []uuid.UUID `json:"photo_ids"`
	CreatedAt time.Time   `json:"created_at"`
}

// Notification is a message addressed to a guest's phone.
type Notification struct {
	GuestID  uuid.UUID   `json:"guest_id"`
	Phone    string      `json:"phone"`
	Message  string      `json:"message"`
	MatchIDs []uuid.UUID `json:"match_ids"`
}
