package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/photospotter/internal/models"
	"github.com/your-org/photospotter/internal/retry"
)

const (
	MatchesStreamName       = "MATCHES"
	MatchesSubjectBase      = "matches"
	NotificationsStreamName = "NOTIFICATIONS"
	NotificationsSubject    = "notify"
)

type Producer struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func connect(natsURL string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create jetstream context: %w", err)
	}
	return nc, js, nil
}

func NewProducer(natsURL string) (*Producer, error) {
	nc, js, err := connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &Producer{nc: nc, js: js}, nil
}

func streamConfigs() []jetstream.StreamConfig {
	return []jetstream.StreamConfig{
		{
			Name:        MatchesStreamName,
			Subjects:    []string{MatchesSubjectBase + ".>"},
			Retention:   jetstream.InterestPolicy,
			MaxAge:      24 * time.Hour,
			MaxMsgs:     1000000,
			Storage:     jetstream.FileStorage,
			Description: "Newly discovered guest/photo matches",
		},
		{
			Name:        NotificationsStreamName,
			Subjects:    []string{NotificationsSubject + ".>"},
			Retention:   jetstream.WorkQueuePolicy,
			MaxAge:      72 * time.Hour,
			MaxMsgs:     100000,
			Storage:     jetstream.FileStorage,
			Discard:     jetstream.DiscardOld,
			Duplicates:  10 * time.Minute,
			Description: "Guest notifications awaiting delivery",
		},
	}
}

// EnsureStreams creates JetStream streams if they don't exist.
// Retries up to 30 times (1s apart) to handle NATS startup delay.
func (p *Producer) EnsureStreams(ctx context.Context) error {
	policy := retry.Policy{MaxAttempts: 30, Delay: time.Second, Strategy: retry.StrategyConstant}

	for _, cfg := range streamConfigs() {
		err := retry.Do(ctx, policy, func(int) error {
			opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			_, err := p.js.CreateOrUpdateStream(opCtx, cfg)
			return err
		}, func(attempt int, err error, _ time.Duration) {
			slog.Warn("ensure NATS stream (retrying...)", "name", cfg.Name, "attempt", attempt, "error", err)
		})
		if err != nil {
			return fmt.Errorf("create stream %s: %w", cfg.Name, err)
		}
		slog.Info("ensured NATS stream", "name", cfg.Name)
	}
	return nil
}

func matchSubject(eventID uuid.UUID) string {
	return fmt.Sprintf("%s.%s", MatchesSubjectBase, eventID)
}

func notificationSubject(guestID uuid.UUID) string {
	return fmt.Sprintf("%s.%s", NotificationsSubject, guestID)
}

// notificationMsgID makes redelivered publishes of the same notice collapse
// inside the stream's duplicate window.
func notificationMsgID(n models.Notification) string {
	var b strings.Builder
	b.WriteString(n.GuestID.String())
	for _, id := range n.MatchIDs {
		b.WriteByte('|')
		b.WriteString(id.String())
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(b.String())).String()
}

// PublishMatch publishes a match notice for realtime subscribers.
func (p *Producer) PublishMatch(ctx context.Context, notice models.MatchNotice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal match notice: %w", err)
	}

	if _, err := p.js.Publish(ctx, matchSubject(notice.EventID), payload); err != nil {
		return fmt.Errorf("publish match: %w", err)
	}
	return nil
}

// PublishNotification queues a guest notification for the notifier worker.
func (p *Producer) PublishNotification(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	_, err = p.js.Publish(ctx, notificationSubject(n.GuestID), payload, jetstream.WithMsgID(notificationMsgID(n)))
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// QueueDepth returns the number of pending messages in the NOTIFICATIONS stream.
func (p *Producer) QueueDepth(ctx context.Context) (uint64, error) {
	stream, err := p.js.Stream(ctx, NotificationsStreamName)
	if err != nil {
		return 0, err
	}
	info, err := stream.Info(ctx)
	if err != nil {
		return 0, err
	}
	return info.State.Msgs, nil
}

func (p *Producer) Ping() error {
	if !p.nc.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

func (p *Producer) Close() {
	p.nc.Close()
}
