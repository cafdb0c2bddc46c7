package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/photospotter/internal/auth"
	"github.com/your-org/photospotter/internal/service"
	"github.com/your-org/photospotter/pkg/dto"
)

type PhotoHandler struct {
	photos   *service.PhotoService
	maxBytes int64
}

func NewPhotoHandler(photos *service.PhotoService, maxUploadBytes int64) *PhotoHandler {
	return &PhotoHandler{photos: photos, maxBytes: maxUploadBytes}
}

func (h *PhotoHandler) Upload(c *gin.Context) {
	if err := parseUploadForm(c); err != nil {
		respondError(c, err)
		return
	}
	eventID, err := parseUUID(c.PostForm("eventId"), "eventId")
	if err != nil {
		respondError(c, err)
		return
	}
	img, err := readUpload(c, "photo", h.maxBytes)
	if err != nil {
		respondError(c, err)
		return
	}

	photo, err := h.photos.Upload(c.Request.Context(), auth.OwnerID(c), eventID, img)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, photoResponse(photo))
}

func (h *PhotoHandler) List(c *gin.Context) {
	eventID, err := parseUUID(c.Query("eventId"), "eventId")
	if err != nil {
		respondError(c, err)
		return
	}

	photos, err := h.photos.ListByEvent(c.Request.Context(), auth.OwnerID(c), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.PhotoResponse, 0, len(photos))
	for i := range photos {
		resp = append(resp, photoResponse(&photos[i]))
	}
	c.JSON(http.StatusOK, dto.PhotoListResponse{Photos: resp, Total: len(resp)})
}

func (h *PhotoHandler) Get(c *gin.Context) {
	id, err := parseUUID(c.Param("id"), "photo id")
	if err != nil {
		respondError(c, err)
		return
	}

	photo, err := h.photos.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, photoResponse(photo))
}
