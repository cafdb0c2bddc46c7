package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/your-org/photospotter/internal/mock"
	"github.com/your-org/photospotter/internal/models"
)

func TestNormalizePhoneNumber(t *testing.T) {
	tests := map[string]string{
		"+1 (555) 010-0199": "15550100199",
		"0044 20 7946 0958": "442079460958",
		"+972-54-123-4567":  "972541234567",
		"":                  "",
		"n/a":               "",
	}
	for in, want := range tests {
		if got := NormalizePhoneNumber(in); got != want {
			t.Errorf("NormalizePhoneNumber(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatchMessage(t *testing.T) {
	if got := MatchMessage("Ann", "Summer Gala", 1); got != "Hi Ann! We found 1 new photo of you from Summer Gala." {
		t.Errorf("unexpected message %q", got)
	}
	if got := MatchMessage(" ", "", 3); got != "Hi there! We found 3 new photos of you." {
		t.Errorf("unexpected message %q", got)
	}
}

func TestDispatcher_Deliver(t *testing.T) {
	n := &mock.Notifier{}
	d := NewDispatcher(n, nil)

	err := d.Deliver(context.Background(), models.Notification{GuestID: uuid.New(), Phone: "+15550100", Message: "hi"})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	sent := n.Sent()
	if len(sent) != 1 || sent[0].Phone != "+15550100" || sent[0].Text != "hi" {
		t.Errorf("unexpected sends %+v", sent)
	}

	if err := d.Deliver(context.Background(), models.Notification{GuestID: uuid.New(), Message: "hi"}); err != nil {
		t.Errorf("expected guests without phone to be skipped, got %v", err)
	}
	if len(n.Sent()) != 1 {
		t.Error("expected no send without a phone number")
	}
}

func TestDispatcher_DeliverFailure(t *testing.T) {
	d := NewDispatcher(&mock.Notifier{SendError: errors.New("offline")}, nil)

	if err := d.Deliver(context.Background(), models.Notification{GuestID: uuid.New(), Phone: "1", Message: "x"}); err == nil {
		t.Fatal("expected delivery error")
	}
}
