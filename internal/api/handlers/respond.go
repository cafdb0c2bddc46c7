package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/photospotter/internal/apperr"
	"github.com/your-org/photospotter/internal/models"
	"github.com/your-org/photospotter/internal/service"
	"github.com/your-org/photospotter/pkg/dto"
)

// respondError writes err with the status its kind maps to. Server-side
// failures are logged; their details never reach the client.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"kind", apperr.KindOf(err),
			"error", err,
		)
	}
	c.JSON(status, gin.H{"error": apperr.PublicMessage(err)})
}

func parseUUID(value, field string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, apperr.E(apperr.KindValidation, field+" is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apperr.E(apperr.KindValidation, "invalid "+field)
	}
	return id, nil
}

const multipartMemory = 32 << 20

// parseUploadForm parses the multipart body once, so that form fields and
// files are read from the same parse and an oversized body is reported as
// such.
func parseUploadForm(c *gin.Context) error {
	err := c.Request.ParseMultipartForm(multipartMemory)
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.Wrap(apperr.KindTooLarge, "request body too large", err)
	}
	return apperr.Wrap(apperr.KindValidation, "multipart form required", err)
}

// readUpload reads a multipart image field, refusing files over maxBytes.
func readUpload(c *gin.Context, field string, maxBytes int64) (service.Upload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return service.Upload{}, apperr.E(apperr.KindValidation, field+" file required")
	}
	if maxBytes > 0 && header.Size > maxBytes {
		return service.Upload{}, apperr.E(apperr.KindValidation, fmt.Sprintf("%s exceeds %d bytes", field, maxBytes))
	}

	f, err := header.Open()
	if err != nil {
		return service.Upload{}, apperr.Wrap(apperr.KindValidation, "cannot read "+field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return service.Upload{}, apperr.Wrap(apperr.KindValidation, "cannot read "+field, err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return service.Upload{Data: data, ContentType: contentType}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func eventResponse(e *models.Event) dto.EventResponse {
	return dto.EventResponse{
		ID:        e.ID,
		Name:      e.Name,
		Date:      e.Date.Format("2006-01-02"),
		OwnerID:   e.OwnerID,
		CreatedAt: formatTime(e.CreatedAt),
	}
}

func guestResponse(g *models.Guest) dto.GuestResponse {
	return dto.GuestResponse{
		ID:        g.ID,
		Name:      g.Name,
		Email:     g.Email,
		Phone:     g.Phone,
		EventID:   g.EventID,
		SelfieURL: g.SelfieURL,
		CreatedAt: formatTime(g.CreatedAt),
	}
}

func photoResponse(p *models.Photo) dto.PhotoResponse {
	r := dto.PhotoResponse{
		ID:        p.ID,
		URL:       p.URL,
		EventID:   p.EventID,
		CreatedAt: formatTime(p.CreatedAt),
	}
	if p.TakenAt != nil {
		r.TakenAt = formatTime(*p.TakenAt)
	}
	return r
}
