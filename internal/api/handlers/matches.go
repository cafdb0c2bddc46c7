package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/photospotter/internal/auth"
	"github.com/your-org/photospotter/internal/service"
	"github.com/your-org/photospotter/pkg/dto"
)

type MatchHandler struct {
	matches  *service.MatchService
	maxBytes int64
}

func NewMatchHandler(matches *service.MatchService, maxUploadBytes int64) *MatchHandler {
	return &MatchHandler{matches: matches, maxBytes: maxUploadBytes}
}

// ByGuest runs reconciliation for ?guestId= and returns every match of the
// guest.
func (h *MatchHandler) ByGuest(c *gin.Context) {
	guestID, err := parseUUID(c.Query("guestId"), "guestId")
	if err != nil {
		respondError(c, err)
		return
	}

	matches, err := h.matches.ForGuest(c.Request.Context(), guestID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.MatchResponse, 0, len(matches))
	for i := range matches {
		m := &matches[i]
		resp = append(resp, dto.MatchResponse{
			ID:         m.ID,
			PhotoID:    m.PhotoID,
			GuestID:    m.GuestID,
			Confidence: m.Confidence,
			CreatedAt:  formatTime(m.CreatedAt),
			Photo:      photoResponse(&m.Photo),
		})
	}
	c.JSON(http.StatusOK, dto.MatchListResponse{Matches: resp, Total: len(resp)})
}

// Search looks up an event's photos resembling a probe image.
func (h *MatchHandler) Search(c *gin.Context) {
	if err := parseUploadForm(c); err != nil {
		respondError(c, err)
		return
	}
	eventID, err := parseUUID(c.PostForm("eventId"), "eventId")
	if err != nil {
		respondError(c, err)
		return
	}
	probe, err := readUpload(c, "image", h.maxBytes)
	if err != nil {
		respondError(c, err)
		return
	}

	matches, err := h.matches.ForImage(c.Request.Context(), auth.OwnerID(c), eventID, probe)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.ProbeMatchResponse, 0, len(matches))
	for i := range matches {
		m := &matches[i]
		resp = append(resp, dto.ProbeMatchResponse{
			PhotoID:    m.PhotoID,
			Confidence: m.Confidence,
			Photo:      photoResponse(&m.Photo),
		})
	}
	c.JSON(http.StatusOK, dto.ProbeSearchResponse{Matches: resp, Total: len(resp)})
}
