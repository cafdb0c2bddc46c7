package models

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Guest struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	EventID   uuid.UUID `json:"event_id" db:"event_id"`
	SelfieURL string    `json:"selfie_url" db:"selfie_url"`
	// FaceID is the directory identifier of the guest's selfie face.
	FaceID    string    `json:"-" db:"face_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ResolveFaceID returns the guest's directory face identifier. Older records
// carry it only as the fragment of the selfie URL ("...#<faceId>"). The
// second return value is false when neither source holds a non-empty id.
func (g *Guest) ResolveFaceID() (string, bool) {
	if id := strings.TrimSpace(g.FaceID); id != "" {
		return id, true
	}
	if g.SelfieURL == "" {
		return "", false
	}
	if u, err := url.Parse(g.SelfieURL); err == nil && u.Fragment != "" {
		return u.Fragment, true
	}
	if i := strings.LastIndexByte(g.SelfieURL, '#'); i >= 0 && i < len(g.SelfieURL)-1 {
		return g.SelfieURL[i+1:], true
	}
	return "", false
}
