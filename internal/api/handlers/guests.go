package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/photospotter/internal/service"
	"github.com/your-org/photospotter/pkg/dto"
)

type GuestHandler struct {
	guests   *service.GuestService
	maxBytes int64
}

func NewGuestHandler(guests *service.GuestService, maxUploadBytes int64) *GuestHandler {
	return &GuestHandler{guests: guests, maxBytes: maxUploadBytes}
}

// Register accepts multipart fields name, email, phone, eventId and a
// selfie file.
func (h *GuestHandler) Register(c *gin.Context) {
	if err := parseUploadForm(c); err != nil {
		respondError(c, err)
		return
	}
	eventID, err := parseUUID(c.PostForm("eventId"), "eventId")
	if err != nil {
		respondError(c, err)
		return
	}
	selfie, err := readUpload(c, "selfie", h.maxBytes)
	if err != nil {
		respondError(c, err)
		return
	}

	guest, err := h.guests.Register(c.Request.Context(), service.RegisterGuestInput{
		Name:    c.PostForm("name"),
		Email:   c.PostForm("email"),
		Phone:   c.PostForm("phone"),
		EventID: eventID,
		Selfie:  selfie,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, guestResponse(guest))
}

func (h *GuestHandler) List(c *gin.Context) {
	eventID, err := parseUUID(c.Query("eventId"), "eventId")
	if err != nil {
		respondError(c, err)
		return
	}

	guests, err := h.guests.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.GuestResponse, 0, len(guests))
	for i := range guests {
		resp = append(resp, guestResponse(&guests[i]))
	}
	c.JSON(http.StatusOK, dto.GuestListResponse{Guests: resp, Total: len(resp)})
}
