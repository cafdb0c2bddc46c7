// Package facedir is the face directory: it detects a face in an image,
// assigns it a durable id and answers similarity searches against stored
// faces or a fresh probe image.
package facedir

import (
	"context"
	"errors"

	"github.com/your-org/photospotter/internal/models"
)

var (
	// ErrNoFaceDetected is returned when an image yields no usable face.
	ErrNoFaceDetected = errors.New("no face detected in image")
	// ErrFaceNotFound is returned when a face id is not in the collection.
	ErrFaceNotFound = errors.New("face not found in collection")
)

type QualityFilter string

const (
	// QualityAuto drops detections below the configured detection score.
	QualityAuto QualityFilter = "AUTO"
	QualityNone QualityFilter = "NONE"
)

type IndexOptions struct {
	MaxFaces      int
	QualityFilter QualityFilter
	// ExternalImageID is the correlation tag returned with later search hits.
	ExternalImageID string
}

type IndexedFace struct {
	FaceID          string
	ExternalImageID string
	Confidence      float32
	BoundingBox     models.BoundingBox
}

// Candidate is one search hit. Similarity is a percentage.
type Candidate struct {
	FaceID          string
	ExternalImageID string
	Similarity      float32
}

// Directory is the face index the ingestion pipeline and the matching
// engine talk to.
type Directory interface {
	IndexFace(ctx context.Context, image []byte, opts IndexOptions) (*IndexedFace, error)
	// SearchFaces returns faces similar to faceID, excluding faceID itself,
	// most similar first.
	SearchFaces(ctx context.Context, faceID string, threshold float32, maxFaces int) ([]Candidate, error)
	SearchFacesByImage(ctx context.Context, image []byte, threshold float32, maxFaces int) ([]Candidate, error)
	DeleteFaces(ctx context.Context, faceIDs []string) (int, error)
	ListFaces(ctx context.Context) ([]string, error)
}
