package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/photospotter/internal/apperr"
	"github.com/your-org/photospotter/internal/auth"
	"github.com/your-org/photospotter/internal/service"
	"github.com/your-org/photospotter/pkg/dto"
)

type EventHandler struct {
	events *service.EventService
}

func NewEventHandler(events *service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

func parseEventDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperr.E(apperr.KindValidation, "date must be YYYY-MM-DD or RFC 3339")
	}
	return t, nil
}

func (h *EventHandler) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date, err := parseEventDate(req.Date)
	if err != nil {
		respondError(c, err)
		return
	}

	event, err := h.events.Create(c.Request.Context(), auth.OwnerID(c), req.Name, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, eventResponse(event))
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.events.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		resp = append(resp, eventResponse(&events[i]))
	}
	c.JSON(http.StatusOK, dto.EventListResponse{Events: resp, Total: len(resp)})
}

func (h *EventHandler) Get(c *gin.Context) {
	id, err := parseUUID(c.Param("id"), "event id")
	if err != nil {
		respondError(c, err)
		return
	}

	event, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, eventResponse(event))
}
