package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/your-org/photospotter/internal/facedir"
)

// Directory is a scripted face directory.
type Directory struct {
	mu sync.Mutex

	// IndexFunc decides the outcome of each IndexFace call. attempt counts
	// calls from 1. When nil, every call indexes a new face.
	IndexFunc func(attempt int, opts facedir.IndexOptions) (*facedir.IndexedFace, error)

	// Similar maps a face id to the candidates SearchFaces returns for it.
	Similar map[string][]facedir.Candidate
	// ImageCandidates is what SearchFacesByImage returns.
	ImageCandidates []facedir.Candidate

	// Error injection
	SearchError      error
	ImageSearchError error
	DeleteError      error

	// Call tracking
	IndexCalls       int
	SearchCalls      int
	ImageSearchCalls int
	LastIndexOptions facedir.IndexOptions
	LastThreshold    float32
	LastMaxFaces     int

	faces []string
	seq   int
}

func NewDirectory() *Directory {
	return &Directory{Similar: make(map[string][]facedir.Candidate)}
}

func (d *Directory) IndexFace(ctx context.Context, image []byte, opts facedir.IndexOptions) (*facedir.IndexedFace, error) {
	d.mu.Lock()
	d.IndexCalls++
	attempt := d.IndexCalls
	d.LastIndexOptions = opts
	fn := d.IndexFunc
	d.mu.Unlock()

	var face *facedir.IndexedFace
	if fn != nil {
		var err error
		face, err = fn(attempt, opts)
		if err != nil {
			return nil, err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if face == nil {
		d.seq++
		face = &facedir.IndexedFace{FaceID: fmt.Sprintf("face-%d", d.seq), Confidence: 99}
	}
	face.ExternalImageID = opts.ExternalImageID
	d.faces = append(d.faces, face.FaceID)
	return face, nil
}

func (d *Directory) SearchFaces(ctx context.Context, faceID string, threshold float32, maxFaces int) ([]facedir.Candidate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.SearchCalls++
	d.LastThreshold = threshold
	d.LastMaxFaces = maxFaces
	if d.SearchError != nil {
		return nil, d.SearchError
	}
	return append([]facedir.Candidate(nil), d.Similar[faceID]...), nil
}

func (d *Directory) SearchFacesByImage(ctx context.Context, image []byte, threshold float32, maxFaces int) ([]facedir.Candidate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ImageSearchCalls++
	d.LastThreshold = threshold
	d.LastMaxFaces = maxFaces
	if d.ImageSearchError != nil {
		return nil, d.ImageSearchError
	}
	return append([]facedir.Candidate(nil), d.ImageCandidates...), nil
}

func (d *Directory) DeleteFaces(ctx context.Context, faceIDs []string) (int, error) {
	if d.DeleteError != nil {
		return 0, d.DeleteError
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	drop := make(map[string]struct{}, len(faceIDs))
	for _, id := range faceIDs {
		drop[id] = struct{}{}
	}
	kept := d.faces[:0]
	deleted := 0
	for _, id := range d.faces {
		if _, ok := drop[id]; ok {
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	d.faces = kept
	return deleted, nil
}

func (d *Directory) ListFaces(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.faces...), nil
}

// AddFaces seeds the collection with face ids.
func (d *Directory) AddFaces(ids ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faces = append(d.faces, ids...)
}
