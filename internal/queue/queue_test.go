package queue

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/photospotter/internal/models"
)

func TestSubjects(t *testing.T) {
	id := uuid.MustParse("0b6c3f0e-1111-4222-8333-444455556666")

	if got := matchSubject(id); got != "matches.0b6c3f0e-1111-4222-8333-444455556666" {
		t.Errorf("matchSubject() = %q", got)
	}
	if got := notificationSubject(id); got != "notify.0b6c3f0e-1111-4222-8333-444455556666" {
		t.Errorf("notificationSubject() = %q", got)
	}
}

func TestStreamConfigs(t *testing.T) {
	cfgs := streamConfigs()
	if len(cfgs) != 2 {
		t.Fatalf("expected two streams, got %d", len(cfgs))
	}

	byName := map[string]jetstream.StreamConfig{}
	for _, c := range cfgs {
		byName[c.Name] = c
	}

	matches := byName[MatchesStreamName]
	if matches.Retention != jetstream.InterestPolicy || !strings.HasPrefix(matches.Subjects[0], MatchesSubjectBase+".") {
		t.Errorf("unexpected MATCHES config %+v", matches)
	}
	notify := byName[NotificationsStreamName]
	if notify.Retention != jetstream.WorkQueuePolicy || notify.Duplicates == 0 {
		t.Errorf("unexpected NOTIFICATIONS config %+v", notify)
	}
}

func TestNotificationMsgID(t *testing.T) {
	g := uuid.New()
	m1, m2 := uuid.New(), uuid.New()
	a := notificationMsgID(models.Notification{GuestID: g, Message: "2 new photos", MatchIDs: []uuid.UUID{m1, m2}})
	b := notificationMsgID(models.Notification{GuestID: g, Message: "2 new photos", MatchIDs: []uuid.UUID{m1, m2}})
	c := notificationMsgID(models.Notification{GuestID: g, Message: "1 new photo", MatchIDs: []uuid.UUID{m2}})

	if a != b {
		t.Error("expected identical notifications to share a message id")
	}
	if a == c {
		t.Error("expected different notifications to get different ids")
	}
}
