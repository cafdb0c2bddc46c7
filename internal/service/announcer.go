package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/your-org/photospotter/internal/models"
	"github.com/your-org/photospotter/internal/notify"
)

// Publisher fans match news out to realtime subscribers and the notifier
// worker.
type Publisher interface {
	PublishMatch(ctx context.Context, notice models.MatchNotice) error
	PublishNotification(ctx context.Context, n models.Notification) error
}

// MatchAnnouncer publishes newly created matches and, when enabled, queues a
// message to the guest.
type MatchAnnouncer struct {
	catalog     Catalog
	publisher   Publisher
	notifyGuest bool
	logger      *slog.Logger
}

func NewMatchAnnouncer(catalog Catalog, publisher Publisher, notifyGuests bool, logger *slog.Logger) *MatchAnnouncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchAnnouncer{
		catalog:     catalog,
		publisher:   publisher,
		notifyGuest: notifyGuests,
		logger:      logger.With("component", "announcer"),
	}
}

func (a *MatchAnnouncer) MatchesCreated(ctx context.Context, guest *models.Guest, matches []models.PhotoMatch) error {
	if len(matches) == 0 {
		return nil
	}

	photoIDs := make([]uuid.UUID, len(matches))
	matchIDs := make([]uuid.UUID, len(matches))
	for i, m := range matches {
		photoIDs[i] = m.PhotoID
		matchIDs[i] = m.ID
	}

	notice := models.MatchNotice{
		EventID:   guest.EventID,
		GuestID:   guest.ID,
		PhotoIDs:  photoIDs,
		CreatedAt: matches[len(matches)-1].CreatedAt,
	}
	if err := a.publisher.PublishMatch(ctx, notice); err != nil {
		return fmt.Errorf("publish match notice: %w", err)
	}

	if !a.notifyGuest || guest.Phone == "" {
		return nil
	}

	eventName := ""
	if event, err := a.catalog.GetEvent(ctx, guest.EventID); err != nil {
		a.logger.Warn("load event for notification", "event_id", guest.EventID, "error", err)
	} else if event != nil {
		eventName = event.Name
	}

	n := models.Notification{
		GuestID:  guest.ID,
		Phone:    guest.Phone,
		Message:  notify.MatchMessage(guest.Name, eventName, len(matches)),
		MatchIDs: matchIDs,
	}
	if err := a.publisher.PublishNotification(ctx, n); err != nil {
		return fmt.Errorf("queue notification: %w", err)
	}
	return nil
}
