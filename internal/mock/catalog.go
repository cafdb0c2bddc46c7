// Package mock provides in-memory implementations of the catalog, face
// directory, object store and notifier for tests.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/photospotter/internal/models"
)

type matchKey struct {
	guestID uuid.UUID
	photoID uuid.UUID
}

// Catalog is an in-memory catalog. Missing rows return nil, nil like the
// Postgres store.
type Catalog struct {
	mu      sync.RWMutex
	seq     int64
	events  map[uuid.UUID]models.Event
	guests  map[uuid.UUID]models.Guest
	photos  map[uuid.UUID]models.Photo
	faces   []models.PhotoFace
	matches []models.PhotoMatch
	byPair  map[matchKey]int

	// Error injection
	CreateEventError     error
	GetEventError        error
	CreateGuestError     error
	GetGuestError        error
	CreatePhotoError     error
	GetPhotoError        error
	ListPhotosError      error
	CreatePhotoFaceError error
	ListMatchesError     error
	CreateMatchError     error
	PurgeError           error

	// Call counters
	GetPhotoCalls    int
	CreateMatchCalls int
}

func NewCatalog() *Catalog {
	return &Catalog{
		events: make(map[uuid.UUID]models.Event),
		guests: make(map[uuid.UUID]models.Guest),
		photos: make(map[uuid.UUID]models.Photo),
		byPair: make(map[matchKey]int),
	}
}

// now returns strictly increasing timestamps so list order is stable.
func (c *Catalog) now() time.Time {
	c.seq++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(c.seq) * time.Millisecond)
}

func (c *Catalog) CreateEvent(ctx context.Context, e *models.Event) error {
	if c.CreateEventError != nil {
		return c.CreateEventError
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = c.now()
	c.events[e.ID] = *e
	return nil
}

func (c *Catalog) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	if c.GetEventError != nil {
		return nil, c.GetEventError
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.events[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (c *Catalog) ListEvents(ctx context.Context) ([]models.Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Event, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (c *Catalog) CreateGuest(ctx context.Context, g *models.Guest) error {
	if c.CreateGuestError != nil {
		return c.CreateGuestError
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	g.CreatedAt = c.now()
	c.guests[g.ID] = *g
	return nil
}

func (c *Catalog) GetGuest(ctx context.Context, id uuid.UUID) (*models.Guest, error) {
	if c.GetGuestError != nil {
		return nil, c.GetGuestError
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.guests[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (c *Catalog) ListGuestsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Guest, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Guest
	for _, g := range c.guests {
		if g.EventID == eventID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (c *Catalog) CreatePhoto(ctx context.Context, p *models.Photo) error {
	if c.CreatePhotoError != nil {
		return c.CreatePhotoError
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = c.now()
	c.photos[p.ID] = *p
	return nil
}

func (c *Catalog) GetPhoto(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	c.mu.Lock()
	c.GetPhotoCalls++
	c.mu.Unlock()
	if c.GetPhotoError != nil {
		return nil, c.GetPhotoError
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.photos[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *Catalog) ListPhotosByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Photo, error) {
	if c.ListPhotosError != nil {
		return nil, c.ListPhotosError
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Photo
	for _, p := range c.photos {
		if p.EventID == eventID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (c *Catalog) CreatePhotoFace(ctx context.Context, f *models.PhotoFace) error {
	if c.CreatePhotoFaceError != nil {
		return c.CreatePhotoFaceError
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	f.CreatedAt = c.now()
	c.faces = append(c.faces, *f)
	return nil
}

func (c *Catalog) ListPhotoFacesByPhoto(ctx context.Context, photoID uuid.UUID) ([]models.PhotoFace, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.PhotoFace
	for _, f := range c.faces {
		if f.PhotoID == photoID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (c *Catalog) ListPhotoFacesByFaceID(ctx context.Context, faceID string) ([]models.PhotoFace, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.PhotoFace
	for _, f := range c.faces {
		if f.FaceID == faceID {
			out = append(out, f)
		}
	}
	return out, nil
}

// CreatePhotoMatch mirrors the conditional insert of the Postgres store.
func (c *Catalog) CreatePhotoMatch(ctx context.Context, m *models.PhotoMatch) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CreateMatchCalls++
	if c.CreateMatchError != nil {
		return false, c.CreateMatchError
	}
	key := matchKey{guestID: m.GuestID, photoID: m.PhotoID}
	if i, ok := c.byPair[key]; ok {
		*m = c.matches[i]
		return false, nil
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = c.now()
	c.byPair[key] = len(c.matches)
	c.matches = append(c.matches, *m)
	return true, nil
}

func (c *Catalog) ListPhotoMatchesByGuest(ctx context.Context, guestID uuid.UUID) ([]models.PhotoMatch, error) {
	if c.ListMatchesError != nil {
		return nil, c.ListMatchesError
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.PhotoMatch
	for _, m := range c.matches {
		if m.GuestID == guestID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (c *Catalog) PurgeAll(ctx context.Context) error {
	if c.PurgeError != nil {
		return c.PurgeError
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = make(map[uuid.UUID]models.Event)
	c.guests = make(map[uuid.UUID]models.Guest)
	c.photos = make(map[uuid.UUID]models.Photo)
	c.faces = nil
	c.matches = nil
	c.byPair = make(map[matchKey]int)
	return nil
}

// Faces returns a copy of every recorded photo face.
func (c *Catalog) Faces() []models.PhotoFace {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.PhotoFace(nil), c.faces...)
}

// Matches returns a copy of every stored photo match.
func (c *Catalog) Matches() []models.PhotoMatch {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.PhotoMatch(nil), c.matches...)
}
