package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/your-org/photospotter/internal/apperr"
	"github.com/your-org/photospotter/internal/models"
)

type RegisterGuestInput struct {
	Name    string
	Email   string
	Phone   string
	EventID uuid.UUID
	Selfie  Upload
}

// Match notifications are delivered to the phone, so registration needs a
// full number.
const minPhoneDigits = 10

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func (in *RegisterGuestInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	switch {
	case in.Name == "":
		return apperr.E(apperr.KindValidation, "name is required")
	case in.Email == "":
		return apperr.E(apperr.KindValidation, "email is required")
	case !strings.Contains(in.Email, "@"):
		return apperr.E(apperr.KindValidation, "email is malformed")
	case in.Phone == "":
		return apperr.E(apperr.KindValidation, "phone is required")
	case countDigits(in.Phone) < minPhoneDigits:
		return apperr.E(apperr.KindValidation, "phone must have at least 10 digits")
	case in.EventID == uuid.Nil:
		return apperr.E(apperr.KindValidation, "eventId is required")
	}
	return in.Selfie.validate("selfie")
}

type GuestService struct {
	catalog  Catalog
	objects  ObjectStore
	ingester Ingester
	logger   *slog.Logger
}

func NewGuestService(catalog Catalog, objects ObjectStore, ingester Ingester, logger *slog.Logger) *GuestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuestService{
		catalog:  catalog,
		objects:  objects,
		ingester: ingester,
		logger:   logger.With("component", "guests"),
	}
}

// Register stores the selfie, indexes its face and persists the guest with
// the resulting face id. A selfie without a usable face aborts registration.
func (s *GuestService) Register(ctx context.Context, in RegisterGuestInput) (*models.Guest, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if _, err := loadEvent(ctx, s.catalog, in.EventID); err != nil {
		return nil, err
	}

	url, err := s.objects.Put(ctx, in.Selfie.Data, in.Selfie.contentType())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "store selfie", err)
	}

	faceID, err := s.ingester.Ingest(ctx, in.Selfie.Data, uuid.Nil)
	if err != nil {
		s.logger.Error("ingest selfie", "event_id", in.EventID, "selfie_url", url, "error", err)
		return nil, err
	}

	guest := &models.Guest{
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		EventID:   in.EventID,
		SelfieURL: url,
		FaceID:    faceID,
	}
	if err := s.catalog.CreateGuest(ctx, guest); err != nil {
		s.logger.Error("create guest", "event_id", in.EventID, "face_id", faceID, "error", err)
		return nil, apperr.Wrap(apperr.KindInternal, "create guest", err)
	}
	s.logger.Info("guest registered", "guest_id", guest.ID, "event_id", guest.EventID, "face_id", faceID)
	return guest, nil
}

func (s *GuestService) Get(ctx context.Context, id uuid.UUID) (*models.Guest, error) {
	guest, err := s.catalog.GetGuest(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load guest", err)
	}
	if guest == nil {
		return nil, apperr.E(apperr.KindNotFound, "guest not found")
	}
	return guest, nil
}

func (s *GuestService) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Guest, error) {
	if _, err := loadEvent(ctx, s.catalog, eventID); err != nil {
		return nil, err
	}
	guests, err := s.catalog.ListGuestsByEvent(ctx, eventID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list guests", err)
	}
	return guests, nil
}
