package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/photospotter/internal/apperr"
	"github.com/your-org/photospotter/internal/models"
)

type EventService struct {
	catalog Catalog
	logger  *slog.Logger
}

func NewEventService(catalog Catalog, logger *slog.Logger) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{catalog: catalog, logger: logger.With("component", "events")}
}

// Create stores a new event owned by ownerID.
func (s *EventService) Create(ctx context.Context, ownerID, name string, date time.Time) (*models.Event, error) {
	name = strings.TrimSpace(name)
	switch {
	case ownerID == "":
		return nil, apperr.E(apperr.KindUnauthorized, "organizer identity required")
	case name == "":
		return nil, apperr.E(apperr.KindValidation, "name is required")
	case date.IsZero():
		return nil, apperr.E(apperr.KindValidation, "date is required")
	}

	event := &models.Event{Name: name, Date: date, OwnerID: ownerID}
	if err := s.catalog.CreateEvent(ctx, event); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "create event", err)
	}
	s.logger.Info("event created", "event_id", event.ID, "owner_id", ownerID)
	return event, nil
}

func (s *EventService) List(ctx context.Context) ([]models.Event, error) {
	events, err := s.catalog.ListEvents(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list events", err)
	}
	return events, nil
}

func (s *EventService) Get(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return loadEvent(ctx, s.catalog, id)
}
