package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", E(KindValidation, "eventId is required"), http.StatusBadRequest},
		{"invalid guest", E(KindInvalidGuestRecord, "guest face id not found"), http.StatusBadRequest},
		{"unauthorized", E(KindUnauthorized, "missing token"), http.StatusUnauthorized},
		{"forbidden", E(KindForbidden, "not the event owner"), http.StatusForbidden},
		{"not found", E(KindNotFound, "guest not found"), http.StatusNotFound},
		{"too large", E(KindTooLarge, "request body too large"), http.StatusRequestEntityTooLarge},
		{"no face", E(KindNoFaceDetected, "no face"), http.StatusInternalServerError},
		{"ingestion", E(KindIngestionFailed, "index failed"), http.StatusInternalServerError},
		{"lookup", E(KindMatchLookupFailed, "search failed"), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestKindOf_ThroughWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("find matches for guest g1: %w", Wrap(KindMatchLookupFailed, "search faces", cause))

	if KindOf(err) != KindMatchLookupFailed {
		t.Errorf("expected match_lookup_failed, got %s", KindOf(err))
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to stay in the chain")
	}
	if !Is(err, KindMatchLookupFailed) {
		t.Error("Is should report the wrapped kind")
	}
}

func TestPublicMessage(t *testing.T) {
	if got := PublicMessage(errors.New("pq: password authentication failed")); got != "internal error" {
		t.Errorf("expected internal details to be hidden, got %q", got)
	}
	if got := PublicMessage(E(KindNotFound, "photo not found")); got != "photo not found" {
		t.Errorf("unexpected message %q", got)
	}
	if got := PublicMessage(E(KindForbidden, "")); got != "forbidden" {
		t.Errorf("expected kind as fallback message, got %q", got)
	}
}

func TestError_Message(t *testing.T) {
	err := Wrap(KindIngestionFailed, "index face", errors.New("timeout"))
	if err.Error() != "index face: timeout" {
		t.Errorf("unexpected error string %q", err.Error())
	}
}
