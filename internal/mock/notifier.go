package mock

import (
	"context"
	"sync"

	"github.com/your-org/photospotter/internal/models"
)

// Message is one recorded notification.
type Message struct {
	Phone string
	Text  string
}

// Notifier records what it was asked to send.
type Notifier struct {
	mu   sync.Mutex
	sent []Message

	SendError error
}

func (n *Notifier) Send(ctx context.Context, phone, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.SendError != nil {
		return n.SendError
	}
	n.sent = append(n.sent, Message{Phone: phone, Text: message})
	return nil
}

func (n *Notifier) Sent() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Message(nil), n.sent...)
}

// MatchPublisher records published match notices and queued notifications.
type MatchPublisher struct {
	mu            sync.Mutex
	notices       []models.MatchNotice
	notifications []models.Notification

	PublishError error
}

func (p *MatchPublisher) PublishMatch(ctx context.Context, n models.MatchNotice) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.PublishError != nil {
		return p.PublishError
	}
	p.notices = append(p.notices, n)
	return nil
}

func (p *MatchPublisher) Notices() []models.MatchNotice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.MatchNotice(nil), p.notices...)
}

func (p *MatchPublisher) PublishNotification(ctx context.Context, n models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.PublishError != nil {
		return p.PublishError
	}
	p.notifications = append(p.notifications, n)
	return nil
}

func (p *MatchPublisher) Notifications() []models.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Notification(nil), p.notifications...)
}
