// Package matching turns face directory similarity candidates into
// validated, deduplicated photo matches scoped to one event.
package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/your-org/photospotter/internal/apperr"
	"github.com/your-org/photospotter/internal/facedir"
	"github.com/your-org/photospotter/internal/imageproc"
	"github.com/your-org/photospotter/internal/models"
	"github.com/your-org/photospotter/internal/observability"
)

// Catalog is the subset of the catalog store reconciliation reads and
// writes.
type Catalog interface {
	GetGuest(ctx context.Context, id uuid.UUID) (*models.Guest, error)
	GetPhoto(ctx context.Context, id uuid.UUID) (*models.Photo, error)
	ListPhotosByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Photo, error)
	ListPhotoMatchesByGuest(ctx context.Context, guestID uuid.UUID) ([]models.PhotoMatch, error)
	// CreatePhotoMatch inserts m unless the (guest, photo) pair exists, in
	// which case m is replaced by the stored row and false is returned.
	CreatePhotoMatch(ctx context.Context, m *models.PhotoMatch) (bool, error)
}

// Searcher is the face directory search surface.
type Searcher interface {
	SearchFaces(ctx context.Context, faceID string, threshold float32, maxFaces int) ([]facedir.Candidate, error)
	SearchFacesByImage(ctx context.Context, image []byte, threshold float32, maxFaces int) ([]facedir.Candidate, error)
}

// Observer is told about matches created by a reconciliation pass.
type Observer interface {
	MatchesCreated(ctx context.Context, guest *models.Guest, matches []models.PhotoMatch) error
}

type Config struct {
	Threshold          float32
	MaxCandidates      int
	ProbeThreshold     float32
	ProbeMaxCandidates int
	ResolveConcurrency int
	Normalize          imageproc.Options
}

func DefaultConfig() Config {
	return Config{
		Threshold:          70,
		MaxCandidates:      100,
		ProbeThreshold:     70,
		ProbeMaxCandidates: 5,
		ResolveConcurrency: 8,
		Normalize:          imageproc.DefaultOptions(),
	}
}

// MatchWithPhoto is a persisted match with its photo resolved.
type MatchWithPhoto struct {
	models.PhotoMatch
	Photo models.Photo `json:"photo"`
}

// ProbeMatch is a photo of the event whose face resembles a probe image.
type ProbeMatch struct {
	PhotoID    uuid.UUID    `json:"photo_id"`
	Photo      models.Photo `json:"photo"`
	Confidence float32      `json:"confidence"`
}

type Engine struct {
	catalog  Catalog
	searcher Searcher
	observer Observer
	cfg      Config
	logger   *slog.Logger
}

// NewEngine builds an engine. observer may be nil.
func NewEngine(catalog Catalog, searcher Searcher, observer Observer, cfg Config, logger *slog.Logger) *Engine {
	if cfg.ResolveConcurrency <= 0 {
		cfg.ResolveConcurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		catalog:  catalog,
		searcher: searcher,
		observer: observer,
		cfg:      cfg,
		logger:   logger.With("component", "matching"),
	}
}

func lookupFailed(msg string, err error) error {
	return apperr.Wrap(apperr.KindMatchLookupFailed, msg, err)
}

// photoTag parses a candidate's correlation tag.
func photoTag(c facedir.Candidate) (uuid.UUID, bool) {
	if c.ExternalImageID == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(c.ExternalImageID)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// FindMatchesForGuest reconciles the guest's similarity candidates into
// persisted matches and returns every match of the guest within the guest's
// event. Running it again never duplicates a (guest, photo) match.
func (e *Engine) FindMatchesForGuest(ctx context.Context, guestID uuid.UUID) ([]MatchWithPhoto, error) {
	guest, err := e.catalog.GetGuest(ctx, guestID)
	if err != nil {
		return nil, lookupFailed("load guest", err)
	}
	if guest == nil {
		return nil, apperr.E(apperr.KindNotFound, "guest not found")
	}

	faceID, ok := guest.ResolveFaceID()
	if !ok {
		e.logger.Error("guest has no face id", "guest_id", guest.ID)
		return nil, apperr.E(apperr.KindInvalidGuestRecord, "guest face id not found")
	}

	candidates, err := e.searcher.SearchFaces(ctx, faceID, e.cfg.Threshold, e.cfg.MaxCandidates)
	if err != nil {
		e.logger.Error("search faces", "guest_id", guest.ID, "face_id", faceID, "error", err)
		return nil, lookupFailed("search faces", err)
	}

	persisted, err := e.catalog.ListPhotoMatchesByGuest(ctx, guest.ID)
	if err != nil {
		return nil, lookupFailed("load existing matches", err)
	}
	claimed := make(map[uuid.UUID]struct{}, len(persisted))
	for _, m := range persisted {
		claimed[m.PhotoID] = struct{}{}
	}

	processed := make(map[uuid.UUID]struct{}, len(candidates))
	resolved := make(map[uuid.UUID]models.Photo)
	var created, fresh []models.PhotoMatch
	// Matches persisted by this pass are announced even when a later step
	// fails; a re-run sees them as history and would never report them.
	defer func() {
		if len(created) > 0 {
			e.announce(context.WithoutCancel(ctx), guest, created)
		}
	}()

	for _, cand := range candidates {
		photoID, ok := photoTag(cand)
		if !ok {
			observability.ReconcileCandidates.WithLabelValues("no_tag").Inc()
			continue
		}
		if _, seen := processed[photoID]; seen {
			observability.ReconcileCandidates.WithLabelValues("duplicate").Inc()
			continue
		}
		if _, seen := claimed[photoID]; seen {
			observability.ReconcileCandidates.WithLabelValues("persisted").Inc()
			continue
		}

		photo, err := e.catalog.GetPhoto(ctx, photoID)
		if err != nil {
			return nil, lookupFailed(fmt.Sprintf("load photo %s", photoID), err)
		}
		if photo == nil {
			observability.ReconcileCandidates.WithLabelValues("missing_photo").Inc()
			continue
		}
		if photo.EventID != guest.EventID {
			observability.ReconcileCandidates.WithLabelValues("foreign_event").Inc()
			continue
		}

		m := &models.PhotoMatch{PhotoID: photoID, GuestID: guest.ID, Confidence: cand.Similarity}
		isNew, err := e.catalog.CreatePhotoMatch(ctx, m)
		if err != nil {
			e.logger.Error("create photo match", "guest_id", guest.ID, "photo_id", photoID, "error", err)
			return nil, lookupFailed("create photo match", err)
		}
		processed[photoID] = struct{}{}
		resolved[photoID] = *photo
		fresh = append(fresh, *m)
		if isNew {
			observability.ReconcileCandidates.WithLabelValues("created").Inc()
			observability.MatchesCreated.Inc()
			created = append(created, *m)
		} else {
			observability.ReconcileCandidates.WithLabelValues("concurrent").Inc()
		}
	}

	all := make([]models.PhotoMatch, 0, len(persisted)+len(fresh))
	all = append(append(all, persisted...), fresh...)
	out, err := e.resolvePhotos(ctx, guest.EventID, all, resolved)
	if err != nil {
		return nil, err
	}

	e.logger.Info("guest reconciled",
		"guest_id", guest.ID,
		"event_id", guest.EventID,
		"candidates", len(candidates),
		"created", len(created),
		"matches", len(out),
	)
	return out, nil
}

func (e *Engine) announce(ctx context.Context, guest *models.Guest, created []models.PhotoMatch) {
	if e.observer == nil {
		return
	}
	if err := e.observer.MatchesCreated(ctx, guest, created); err != nil {
		e.logger.Warn("match observer failed", "guest_id", guest.ID, "error", err)
	}
}

// resolvePhotos attaches each match's photo, dropping matches whose photo is
// gone or belongs to another event. Order is preserved.
func (e *Engine) resolvePhotos(ctx context.Context, eventID uuid.UUID, matches []models.PhotoMatch, known map[uuid.UUID]models.Photo) ([]MatchWithPhoto, error) {
	photos := make([]*models.Photo, len(matches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.ResolveConcurrency)
	for i, m := range matches {
		if p, ok := known[m.PhotoID]; ok {
			photos[i] = &p
			continue
		}
		g.Go(func() error {
			p, err := e.catalog.GetPhoto(gctx, m.PhotoID)
			if err != nil {
				return fmt.Errorf("load photo %s: %w", m.PhotoID, err)
			}
			photos[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, lookupFailed("resolve match photos", err)
	}

	out := make([]MatchWithPhoto, 0, len(matches))
	seen := make(map[uuid.UUID]struct{}, len(matches))
	for i, m := range matches {
		p := photos[i]
		if p == nil || p.EventID != eventID {
			continue
		}
		if _, dup := seen[m.PhotoID]; dup {
			continue
		}
		seen[m.PhotoID] = struct{}{}
		out = append(out, MatchWithPhoto{PhotoMatch: m, Photo: *p})
	}
	return out, nil
}

// FindMatchesForImage returns the event's photos whose faces resemble the
// face in image. It never writes matches.
func (e *Engine) FindMatchesForImage(ctx context.Context, image []byte, eventID uuid.UUID) ([]ProbeMatch, error) {
	photos, err := e.catalog.ListPhotosByEvent(ctx, eventID)
	if err != nil {
		return nil, lookupFailed("load event photos", err)
	}
	if len(photos) == 0 {
		return []ProbeMatch{}, nil
	}
	byID := make(map[uuid.UUID]models.Photo, len(photos))
	for _, p := range photos {
		byID[p.ID] = p
	}

	norm, err := imageproc.Normalize(image, e.cfg.Normalize)
	if err != nil {
		return nil, err
	}

	candidates, err := e.searcher.SearchFacesByImage(ctx, norm.Data, e.cfg.ProbeThreshold, e.cfg.ProbeMaxCandidates)
	if err != nil {
		if errors.Is(err, facedir.ErrNoFaceDetected) {
			return nil, apperr.Wrap(apperr.KindNoFaceDetected, "no face detected in image", err)
		}
		e.logger.Error("search faces by image", "event_id", eventID, "error", err)
		return nil, lookupFailed("search faces by image", err)
	}

	out := make([]ProbeMatch, 0, len(candidates))
	seen := make(map[uuid.UUID]struct{}, len(candidates))
	for _, cand := range candidates {
		photoID, ok := photoTag(cand)
		if !ok {
			continue
		}
		if _, dup := seen[photoID]; dup {
			continue
		}
		photo, ok := byID[photoID]
		if !ok {
			continue
		}
		seen[photoID] = struct{}{}
		out = append(out, ProbeMatch{PhotoID: photoID, Photo: photo, Confidence: cand.Similarity})
	}

	e.logger.Info("probe image searched",
		"event_id", eventID,
		"candidates", len(candidates),
		"matches", len(out),
	)
	return out, nil
}
