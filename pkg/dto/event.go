package dto

import "github.com/google/uuid"

type CreateEventRequest struct {
	Name string `json:"name" binding:"required"`
	// Date is either 2006-01-02 or RFC 3339.
	Date string `json:"date" binding:"required"`
}

type EventResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Date      string    `json:"date"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt string    `json:"createdAt"`
}

type EventListResponse struct {
	Events []EventResponse `json:"events"`
	Total  int             `json:"total"`
}

type GuestResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	EventID   uuid.UUID `json:"eventId"`
	SelfieURL string    `json:"selfieUrl"`
	CreatedAt string    `json:"createdAt"`
}

type GuestListResponse struct {
	Guests []GuestResponse `json:"guests"`
	Total  int             `json:"total"`
}

type CleanupResponse struct {
	Objects int `json:"objects"`
	Faces   int `json:"faces"`
}
