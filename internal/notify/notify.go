// Package notify delivers guest notifications.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/your-org/photospotter/internal/models"
	"github.com/your-org/photospotter/internal/observability"
)

// Notifier sends a text message to a phone number. Delivery is attempted
// once; callers log failures and move on.
type Notifier interface {
	Send(ctx context.Context, phone, message string) error
}

// MatchMessage is the text sent to a guest when new photos of them are found.
func MatchMessage(guestName, eventName string, count int) string {
	noun := "photos"
	if count == 1 {
		noun = "photo"
	}
	name := strings.TrimSpace(guestName)
	if name == "" {
		name = "there"
	}
	if eventName == "" {
		return fmt.Sprintf("Hi %s! We found %d new %s of you.", name, count, noun)
	}
	return fmt.Sprintf("Hi %s! We found %d new %s of you from %s.", name, count, noun, eventName)
}

// Dispatcher hands queued notifications to a Notifier.
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger
}

func NewDispatcher(n Notifier, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{notifier: n, logger: logger.With("component", "notify")}
}

func (d *Dispatcher) Deliver(ctx context.Context, n models.Notification) error {
	if n.Phone == "" {
		observability.NotificationsSent.WithLabelValues("skipped").Inc()
		return nil
	}
	if err := d.notifier.Send(ctx, n.Phone, n.Message); err != nil {
		observability.NotificationsSent.WithLabelValues("failed").Inc()
		d.logger.Error("send notification", "guest_id", n.GuestID, "error", err)
		return fmt.Errorf("send notification to guest %s: %w", n.GuestID, err)
	}
	observability.NotificationsSent.WithLabelValues("sent").Inc()
	d.logger.Info("notification sent", "guest_id", n.GuestID, "matches", len(n.MatchIDs))
	return nil
}
