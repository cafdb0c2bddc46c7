package dto

import "github.com/google/uuid"

type PhotoResponse struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	EventID   uuid.UUID `json:"eventId"`
	TakenAt   string    `json:"takenAt,omitempty"`
	CreatedAt string    `json:"createdAt"`
}

type PhotoListResponse struct {
	Photos []PhotoResponse `json:"photos"`
	Total  int             `json:"total"`
}

// MatchResponse is a persisted guest match with its photo.
type MatchResponse struct {
	ID         uuid.UUID     `json:"id"`
	PhotoID    uuid.UUID     `json:"photoId"`
	GuestID    uuid.UUID     `json:"guestId"`
	Confidence float32       `json:"confidence"`
	CreatedAt  string        `json:"createdAt"`
	Photo      PhotoResponse `json:"photo"`
}

type MatchListResponse struct {
	Matches []MatchResponse `json:"matches"`
	Total   int             `json:"total"`
}

// ProbeMatchResponse is one result of a probe-image search. Nothing is
// persisted for it.
type ProbeMatchResponse struct {
	PhotoID    uuid.UUID     `json:"photoId"`
	Confidence float32       `json:"confidence"`
	Photo      PhotoResponse `json:"photo"`
}

type ProbeSearchResponse struct {
	Matches []ProbeMatchResponse `json:"matches"`
	Total   int                  `json:"total"`
}

// WSEvent is pushed to websocket subscribers of an event.
type WSEvent struct {
	Type     string      `json:"type"` // "match_found"
	EventID  uuid.UUID   `json:"event_id"`
	GuestID  uuid.UUID   `json:"guest_id"`
	PhotoIDs []uuid.UUID `json:"photo_ids"`
	At       string      `json:"at"`
}
