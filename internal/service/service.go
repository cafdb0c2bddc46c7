// Package service orchestrates events, guest registration, photo upload,
// match lookups and bulk cleanup on top of the catalog, object store, face
// directory and the ingestion and matching cores.
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/your-org/photospotter/internal/apperr"
	"github.com/your-org/photospotter/internal/models"
)

// Catalog is the catalog surface the services use.
type Catalog interface {
	CreateEvent(ctx context.Context, e *models.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	CreateGuest(ctx context.Context, g *models.Guest) error
	GetGuest(ctx context.Context, id uuid.UUID) (*models.Guest, error)
	ListGuestsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Guest, error)
	CreatePhoto(ctx context.Context, p *models.Photo) error
	GetPhoto(ctx context.Context, id uuid.UUID) (*models.Photo, error)
	ListPhotosByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Photo, error)
	PurgeAll(ctx context.Context) error
}

// ObjectStore persists image bytes and returns a retrievable URL.
type ObjectStore interface {
	Put(ctx context.Context, data []byte, contentType string) (string, error)
	ListObjects(ctx context.Context, prefix string) ([]string, error)
	DeleteObjects(ctx context.Context, keys []string) error
}

// Ingester indexes the face in an image.
type Ingester interface {
	Ingest(ctx context.Context, image []byte, correlationID uuid.UUID) (string, error)
}

// Upload is an image received from a client.
type Upload struct {
	Data        []byte
	ContentType string
}

func (u Upload) validate(field string) error {
	if len(u.Data) == 0 {
		return apperr.E(apperr.KindValidation, field+" is required")
	}
	if u.ContentType != "" && !strings.HasPrefix(u.ContentType, "image/") {
		return apperr.E(apperr.KindValidation, field+" must be an image")
	}
	return nil
}

func (u Upload) contentType() string {
	if u.ContentType == "" {
		return "image/jpeg"
	}
	return u.ContentType
}

// loadEvent returns the event or a NotFound error.
func loadEvent(ctx context.Context, catalog Catalog, id uuid.UUID) (*models.Event, error) {
	if id == uuid.Nil {
		return nil, apperr.E(apperr.KindValidation, "eventId is required")
	}
	event, err := catalog.GetEvent(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load event", err)
	}
	if event == nil {
		return nil, apperr.E(apperr.KindNotFound, "event not found")
	}
	return event, nil
}

// loadOwnedEvent is loadEvent plus the ownership check organizers need.
func loadOwnedEvent(ctx context.Context, catalog Catalog, id uuid.UUID, ownerID string) (*models.Event, error) {
	event, err := loadEvent(ctx, catalog, id)
	if err != nil {
		return nil, err
	}
	if !event.OwnedBy(ownerID) {
		return nil, apperr.E(apperr.KindForbidden, "you do not own this event")
	}
	return event, nil
}
