package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/your-org/photospotter/internal/storage"
)

// FaceBatchSize is how many face ids one DeleteFaces call removes.
const FaceBatchSize = 1000

// FaceStore is the face collection maintenance surface.
type FaceStore interface {
	ListFaces(ctx context.Context) ([]string, error)
	DeleteFaces(ctx context.Context, faceIDs []string) (int, error)
}

// Progress is told how far a cleanup stage has got.
type Progress func(stage string, done, total int)

type CleanupReport struct {
	Objects int `json:"objects"`
	Faces   int `json:"faces"`
}

type CleanupService struct {
	catalog Catalog
	objects ObjectStore
	faces   FaceStore
	logger  *slog.Logger
}

func NewCleanupService(catalog Catalog, objects ObjectStore, faces FaceStore, logger *slog.Logger) *CleanupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupService{
		catalog: catalog,
		objects: objects,
		faces:   faces,
		logger:  logger.With("component", "cleanup"),
	}
}

// All wipes stored images, the face collection and every catalog table.
func (s *CleanupService) All(ctx context.Context, progress Progress) (CleanupReport, error) {
	var report CleanupReport

	keys, err := s.objects.ListObjects(ctx, storage.OriginalsPrefix)
	if err != nil {
		return report, fmt.Errorf("list objects: %w", err)
	}
	if len(keys) > 0 {
		if err := s.objects.DeleteObjects(ctx, keys); err != nil {
			return report, fmt.Errorf("delete objects: %w", err)
		}
	}
	report.Objects = len(keys)
	if progress != nil {
		progress("objects", len(keys), len(keys))
	}

	faces, err := s.Faces(ctx, progress)
	report.Faces = faces
	if err != nil {
		return report, err
	}

	if err := s.catalog.PurgeAll(ctx); err != nil {
		return report, fmt.Errorf("purge catalog: %w", err)
	}
	s.logger.Info("cleanup complete", "objects", report.Objects, "faces", report.Faces)
	return report, nil
}

// Faces empties the face collection in batches and returns how many faces
// were deleted.
func (s *CleanupService) Faces(ctx context.Context, progress Progress) (int, error) {
	ids, err := s.faces.ListFaces(ctx)
	if err != nil {
		return 0, fmt.Errorf("list faces: %w", err)
	}

	deleted := 0
	for start := 0; start < len(ids); start += FaceBatchSize {
		end := min(start+FaceBatchSize, len(ids))
		n, err := s.faces.DeleteFaces(ctx, ids[start:end])
		deleted += n
		if err != nil {
			return deleted, fmt.Errorf("delete faces %d..%d: %w", start, end, err)
		}
		if progress != nil {
			progress("faces", end, len(ids))
		}
	}
	s.logger.Info("face collection emptied", "faces", deleted)
	return deleted, nil
}
