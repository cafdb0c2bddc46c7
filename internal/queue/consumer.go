package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/photospotter/internal/models"
)

type MessageHandler func(ctx context.Context, msg jetstream.Msg) error

type Consumer struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewConsumer(natsURL string) (*Consumer, error) {
	nc, js, err := connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &Consumer{nc: nc, js: js}, nil
}

// DecodeNotification unmarshals a NOTIFICATIONS message.
func DecodeNotification(msg jetstream.Msg) (models.Notification, error) {
	var n models.Notification
	if err := json.Unmarshal(msg.Data(), &n); err != nil {
		return n, fmt.Errorf("decode notification: %w", err)
	}
	return n, nil
}

// DecodeMatchNotice unmarshals a MATCHES message.
func DecodeMatchNotice(msg jetstream.Msg) (models.MatchNotice, error) {
	var n models.MatchNotice
	if err := json.Unmarshal(msg.Data(), &n); err != nil {
		return n, fmt.Errorf("decode match notice: %w", err)
	}
	return n, nil
}

// ConsumeNotifications starts consuming the NOTIFICATIONS stream.
// workerCount determines how many goroutines deliver concurrently.
func (c *Consumer) ConsumeNotifications(ctx context.Context, consumerName string, handler MessageHandler, workerCount int) error {
	if workerCount < 1 {
		workerCount = 1
	}

	stream, err := c.js.Stream(ctx, NotificationsStreamName)
	if err != nil {
		return fmt.Errorf("get stream %s: %w", NotificationsStreamName, err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    3,
		FilterSubject: NotificationsSubject + ".>",
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", consumerName, err)
	}

	msgCh := make(chan jetstream.Msg, workerCount*2)

	go func() {
		defer close(msgCh)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			batch, err := cons.Fetch(workerCount, jetstream.FetchMaxWait(5*time.Second))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("fetch notifications error", "error", err)
				time.Sleep(time.Second)
				continue
			}

			for msg := range batch.Messages() {
				select {
				case msgCh <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	for i := 0; i < workerCount; i++ {
		go func(workerID int) {
			for msg := range msgCh {
				if err := handler(ctx, msg); err != nil {
					slog.Error("deliver notification error", "worker", workerID, "error", err, "subject", msg.Subject())
					// Delivery is not retried: the Notifier boundary is fire and forget.
					_ = msg.Term()
				} else {
					_ = msg.Ack()
				}
			}
		}(i)
	}

	slog.Info("notification consumer started", "consumer", consumerName, "workers", workerCount)
	return nil
}

// ConsumeMatches starts consuming match notices (for API to broadcast via WebSocket).
func (c *Consumer) ConsumeMatches(ctx context.Context, consumerName string, handler MessageHandler) error {
	stream, err := c.js.Stream(ctx, MatchesStreamName)
	if err != nil {
		return fmt.Errorf("get stream %s: %w", MatchesStreamName, err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       10 * time.Second,
		MaxDeliver:    3,
		FilterSubject: MatchesSubjectBase + ".>",
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", consumerName, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			batch, err := cons.Fetch(10, jetstream.FetchMaxWait(5*time.Second))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				time.Sleep(time.Second)
				continue
			}

			for msg := range batch.Messages() {
				if err := handler(ctx, msg); err != nil {
					slog.Error("process match notice error", "error", err)
					_ = msg.Nak()
				} else {
					_ = msg.Ack()
				}
			}
		}
	}()

	slog.Info("match consumer started", "consumer", consumerName)
	return nil
}

func (c *Consumer) Close() {
	c.nc.Close()
}
