package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/photospotter/internal/service"
	"github.com/your-org/photospotter/pkg/dto"
)

type AdminHandler struct {
	cleanup *service.CleanupService
}

func NewAdminHandler(cleanup *service.CleanupService) *AdminHandler {
	return &AdminHandler{cleanup: cleanup}
}

func (h *AdminHandler) Cleanup(c *gin.Context) {
	report, err := h.cleanup.All(c.Request.Context(), nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CleanupResponse{Objects: report.Objects, Faces: report.Faces})
}

func (h *AdminHandler) CleanupFaces(c *gin.Context) {
	n, err := h.cleanup.Faces(c.Request.Context(), nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CleanupResponse{Faces: n})
}
