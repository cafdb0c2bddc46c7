package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/your-org/photospotter/internal/apperr"
	"github.com/your-org/photospotter/internal/matching"
)

// Matcher is the reconciliation engine.
type Matcher interface {
	FindMatchesForGuest(ctx context.Context, guestID uuid.UUID) ([]matching.MatchWithPhoto, error)
	FindMatchesForImage(ctx context.Context, image []byte, eventID uuid.UUID) ([]matching.ProbeMatch, error)
}

type MatchService struct {
	catalog Catalog
	matcher Matcher
}

func NewMatchService(catalog Catalog, matcher Matcher) *MatchService {
	return &MatchService{catalog: catalog, matcher: matcher}
}

func (s *MatchService) ForGuest(ctx context.Context, guestID uuid.UUID) ([]matching.MatchWithPhoto, error) {
	if guestID == uuid.Nil {
		return nil, apperr.E(apperr.KindValidation, "guestId is required")
	}
	return s.matcher.FindMatchesForGuest(ctx, guestID)
}

// ForImage searches an owned event for photos resembling the probe image.
func (s *MatchService) ForImage(ctx context.Context, ownerID string, eventID uuid.UUID, probe Upload) ([]matching.ProbeMatch, error) {
	if err := probe.validate("image"); err != nil {
		return nil, err
	}
	if _, err := loadOwnedEvent(ctx, s.catalog, eventID, ownerID); err != nil {
		return nil, err
	}
	return s.matcher.FindMatchesForImage(ctx, probe.Data, eventID)
}
