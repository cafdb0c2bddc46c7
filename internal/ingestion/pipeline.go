// Package ingestion normalizes an image, indexes its face in the face
// directory under a retry policy and records the face against its photo.
package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/photospotter/internal/apperr"
	"github.com/your-org/photospotter/internal/facedir"
	"github.com/your-org/photospotter/internal/imageproc"
	"github.com/your-org/photospotter/internal/models"
	"github.com/your-org/photospotter/internal/observability"
	"github.com/your-org/photospotter/internal/retry"
)

// FaceRecorder persists face observations.
type FaceRecorder interface {
	CreatePhotoFace(ctx context.Context, f *models.PhotoFace) error
}

type Config struct {
	Normalize imageproc.Options
	Retry     retry.Policy
}

type Pipeline struct {
	dir    facedir.Directory
	faces  FaceRecorder
	cfg    Config
	logger *slog.Logger
}

func New(dir facedir.Directory, faces FaceRecorder, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		dir:    dir,
		faces:  faces,
		cfg:    cfg,
		logger: logger.With("component", "ingestion"),
	}
}

// Ingest indexes the face in image and returns its directory id. A non-nil
// correlationID tags the face and, on success, is recorded as the photo the
// face belongs to. Selfies are ingested with uuid.Nil.
func (p *Pipeline) Ingest(ctx context.Context, image []byte, correlationID uuid.UUID) (string, error) {
	start := time.Now()

	norm, err := imageproc.Normalize(image, p.cfg.Normalize)
	if err != nil {
		observability.IngestionResults.WithLabelValues("invalid_image").Inc()
		return "", err
	}
	observability.IngestionDuration.WithLabelValues("normalize").Observe(time.Since(start).Seconds())

	opts := facedir.IndexOptions{MaxFaces: 1, QualityFilter: facedir.QualityAuto}
	if correlationID != uuid.Nil {
		opts.ExternalImageID = correlationID.String()
	}

	var indexed *facedir.IndexedFace
	indexStart := time.Now()
	err = retry.Do(ctx, p.cfg.Retry, func(attempt int) error {
		face, err := p.dir.IndexFace(ctx, norm.Data, opts)
		if err == nil && (face == nil || face.FaceID == "") {
			err = facedir.ErrNoFaceDetected
		}
		if err != nil {
			observability.IngestionAttempts.WithLabelValues("failure").Inc()
			return err
		}
		observability.IngestionAttempts.WithLabelValues("success").Inc()
		indexed = face
		return nil
	}, func(attempt int, err error, next time.Duration) {
		p.logger.Warn("index face attempt failed",
			"attempt", attempt,
			"correlation_id", opts.ExternalImageID,
			"retry_in", next.String(),
			"error", err,
		)
	})
	observability.IngestionDuration.WithLabelValues("index").Observe(time.Since(indexStart).Seconds())

	if err != nil {
		if errors.Is(err, facedir.ErrNoFaceDetected) {
			observability.IngestionResults.WithLabelValues("no_face").Inc()
			p.logger.Error("no face detected", "correlation_id", opts.ExternalImageID)
			return "", apperr.Wrap(apperr.KindNoFaceDetected, "no face detected in image", err)
		}
		observability.IngestionResults.WithLabelValues("failed").Inc()
		p.logger.Error("face indexing failed", "correlation_id", opts.ExternalImageID, "error", err)
		return "", apperr.Wrap(apperr.KindIngestionFailed, "face indexing failed", err)
	}

	if correlationID != uuid.Nil && p.faces != nil {
		face := &models.PhotoFace{
			PhotoID:     correlationID,
			FaceID:      indexed.FaceID,
			Confidence:  indexed.Confidence,
			BoundingBox: indexed.BoundingBox,
		}
		if err := p.faces.CreatePhotoFace(ctx, face); err != nil {
			observability.IngestionResults.WithLabelValues("failed").Inc()
			p.logger.Error("record photo face", "photo_id", correlationID, "face_id", indexed.FaceID, "error", err)
			return "", apperr.Wrap(apperr.KindIngestionFailed, "record photo face", err)
		}
	}

	observability.IngestionResults.WithLabelValues("indexed").Inc()
	p.logger.Info("face ingested",
		"face_id", indexed.FaceID,
		"correlation_id", opts.ExternalImageID,
		"duration", time.Since(start).String(),
	)
	return indexed.FaceID, nil
}
