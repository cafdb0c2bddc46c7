package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/photospotter/internal/apperr"
	"github.com/your-org/photospotter/internal/imageproc"
	"github.com/your-org/photospotter/internal/models"
)

type PhotoService struct {
	catalog  Catalog
	objects  ObjectStore
	ingester Ingester
	// settle is how long an upload waits after indexing so the face is
	// searchable before the response returns.
	settle time.Duration
	logger *slog.Logger
}

func NewPhotoService(catalog Catalog, objects ObjectStore, ingester Ingester, settle time.Duration, logger *slog.Logger) *PhotoService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PhotoService{
		catalog:  catalog,
		objects:  objects,
		ingester: ingester,
		settle:   settle,
		logger:   logger.With("component", "photos"),
	}
}

// Upload stores a photo for an event owned by ownerID and indexes its face
// tagged with the photo id. The photo row is written before indexing and is
// kept if indexing fails.
func (s *PhotoService) Upload(ctx context.Context, ownerID string, eventID uuid.UUID, img Upload) (*models.Photo, error) {
	if err := img.validate("photo"); err != nil {
		return nil, err
	}
	if _, err := loadOwnedEvent(ctx, s.catalog, eventID, ownerID); err != nil {
		return nil, err
	}

	photo := &models.Photo{ID: uuid.New(), EventID: eventID}
	url, err := s.objects.Put(ctx, img.Data, img.contentType())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "store photo", err)
	}
	photo.URL = url
	if taken, ok := imageproc.CaptureTime(img.Data); ok {
		photo.TakenAt = taken
	}

	if err := s.catalog.CreatePhoto(ctx, photo); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "create photo", err)
	}

	faceID, err := s.ingester.Ingest(ctx, img.Data, photo.ID)
	if err != nil {
		s.logger.Error("ingest photo", "photo_id", photo.ID, "event_id", eventID, "error", err)
		return nil, err
	}

	if s.settle > 0 {
		timer := time.NewTimer(s.settle)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	s.logger.Info("photo uploaded", "photo_id", photo.ID, "event_id", eventID, "face_id", faceID)
	return photo, nil
}

func (s *PhotoService) Get(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	photo, err := s.catalog.GetPhoto(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load photo", err)
	}
	if photo == nil {
		return nil, apperr.E(apperr.KindNotFound, "photo not found")
	}
	return photo, nil
}

// ListByEvent lists an event's photos for its owner.
func (s *PhotoService) ListByEvent(ctx context.Context, ownerID string, eventID uuid.UUID) ([]models.Photo, error) {
	if _, err := loadOwnedEvent(ctx, s.catalog, eventID, ownerID); err != nil {
		return nil, err
	}
	photos, err := s.catalog.ListPhotosByEvent(ctx, eventID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list photos", err)
	}
	return photos, nil
}
