package storage

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/photospotter/internal/config"
	"github.com/your-org/photospotter/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore is the catalog: events, guests, photos, photo faces and
// photo matches. Lookups of a missing row return nil, nil.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStoreFromPool wraps an existing pool.
func NewPostgresStoreFromPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Pool exposes the connection pool so the face collection can share it.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Migrate applies the catalog schema. It is idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate catalog: %w", err)
	}
	return nil
}

// --- Events ---

func (s *PostgresStore) CreateEvent(ctx context.Context, e *models.Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO events (id, name, date, owner_id) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		e.ID, e.Name, e.Date, e.OwnerID,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e := &models.Event{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, date, owner_id, created_at FROM events WHERE id = $1`, id,
	).Scan(&e.ID, &e.Name, &e.Date, &e.OwnerID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, date, owner_id, created_at FROM events ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Date, &e.OwnerID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// --- Guests ---

func (s *PostgresStore) CreateGuest(ctx context.Context, g *models.Guest) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO guests (id, name, email, phone, event_id, selfie_url, face_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		g.ID, g.Name, g.Email, g.Phone, g.EventID, g.SelfieURL, g.FaceID,
	).Scan(&g.CreatedAt)
	if err != nil {
		return fmt.Errorf("create guest: %w", err)
	}
	return nil
}

const guestColumns = `id, name, email, phone, event_id, selfie_url, face_id, created_at`

func scanGuest(row pgx.Row, g *models.Guest) error {
	return row.Scan(&g.ID, &g.Name, &g.Email, &g.Phone, &g.EventID, &g.SelfieURL, &g.FaceID, &g.CreatedAt)
}

func (s *PostgresStore) GetGuest(ctx context.Context, id uuid.UUID) (*models.Guest, error) {
	g := &models.Guest{}
	err := scanGuest(s.pool.QueryRow(ctx, `SELECT `+guestColumns+` FROM guests WHERE id = $1`, id), g)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get guest: %w", err)
	}
	return g, nil
}

func (s *PostgresStore) ListGuestsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Guest, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+guestColumns+` FROM guests WHERE event_id = $1 ORDER BY created_at`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	defer rows.Close()

	var guests []models.Guest
	for rows.Next() {
		var g models.Guest
		if err := scanGuest(rows, &g); err != nil {
			return nil, fmt.Errorf("scan guest: %w", err)
		}
		guests = append(guests, g)
	}
	return guests, rows.Err()
}

// --- Photos ---

// CreatePhoto inserts p. A preset ID is kept: it is the correlation tag the
// face directory was or will be given.
func (s *PostgresStore) CreatePhoto(ctx context.Context, p *models.Photo) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO photos (id, url, event_id, taken_at) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		p.ID, p.URL, p.EventID, p.TakenAt,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create photo: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPhoto(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	p := &models.Photo{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, url, event_id, taken_at, created_at FROM photos WHERE id = $1`, id,
	).Scan(&p.ID, &p.URL, &p.EventID, &p.TakenAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPhotosByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Photo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, url, event_id, taken_at, created_at FROM photos WHERE event_id = $1 ORDER BY created_at`,
		eventID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var photos []models.Photo
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.URL, &p.EventID, &p.TakenAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// --- Photo faces ---

func (s *PostgresStore) CreatePhotoFace(ctx context.Context, f *models.PhotoFace) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	b := f.BoundingBox
	err := s.pool.QueryRow(ctx,
		`INSERT INTO photo_faces (id, photo_id, face_id, confidence, bbox_left, bbox_top, bbox_width, bbox_height)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`,
		f.ID, f.PhotoID, f.FaceID, f.Confidence, b.Left, b.Top, b.Width, b.Height,
	).Scan(&f.CreatedAt)
	if err != nil {
		return fmt.Errorf("create photo face: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPhotoFacesByPhoto(ctx context.Context, photoID uuid.UUID) ([]models.PhotoFace, error) {
	return s.listPhotoFaces(ctx, `photo_id = $1`, photoID)
}

func (s *PostgresStore) ListPhotoFacesByFaceID(ctx context.Context, faceID string) ([]models.PhotoFace, error) {
	return s.listPhotoFaces(ctx, `face_id = $1`, faceID)
}

func (s *PostgresStore) listPhotoFaces(ctx context.Context, where string, arg any) ([]models.PhotoFace, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, photo_id, face_id, confidence, bbox_left, bbox_top, bbox_width, bbox_height, created_at
		 FROM photo_faces WHERE `+where+` ORDER BY created_at`, arg)
	if err != nil {
		return nil, fmt.Errorf("list photo faces: %w", err)
	}
	defer rows.Close()

	var faces []models.PhotoFace
	for rows.Next() {
		var f models.PhotoFace
		b := &f.BoundingBox
		if err := rows.Scan(&f.ID, &f.PhotoID, &f.FaceID, &f.Confidence,
			&b.Left, &b.Top, &b.Width, &b.Height, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan photo face: %w", err)
		}
		faces = append(faces, f)
	}
	return faces, rows.Err()
}

// --- Photo matches ---

// CreatePhotoMatch inserts m unless a match for the same guest and photo
// already exists. When one does, m is overwritten with the stored row and
// created is false.
func (s *PostgresStore) CreatePhotoMatch(ctx context.Context, m *models.PhotoMatch) (bool, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO photo_matches (id, photo_id, guest_id, confidence) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (guest_id, photo_id) DO NOTHING
		 RETURNING created_at`,
		m.ID, m.PhotoID, m.GuestID, m.Confidence,
	).Scan(&m.CreatedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("create photo match: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`SELECT id, confidence, created_at FROM photo_matches WHERE guest_id = $1 AND photo_id = $2`,
		m.GuestID, m.PhotoID,
	).Scan(&m.ID, &m.Confidence, &m.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("load existing photo match: %w", err)
	}
	return false, nil
}

func (s *PostgresStore) ListPhotoMatchesByGuest(ctx context.Context, guestID uuid.UUID) ([]models.PhotoMatch, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, photo_id, guest_id, confidence, created_at FROM photo_matches
		 WHERE guest_id = $1 ORDER BY created_at, id`, guestID)
	if err != nil {
		return nil, fmt.Errorf("list photo matches: %w", err)
	}
	defer rows.Close()

	var matches []models.PhotoMatch
	for rows.Next() {
		var m models.PhotoMatch
		if err := rows.Scan(&m.ID, &m.PhotoID, &m.GuestID, &m.Confidence, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan photo match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// PurgeAll deletes every catalog row.
func (s *PostgresStore) PurgeAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx,
		`TRUNCATE photo_matches, photo_faces, photos, guests, events`); err != nil {
		return fmt.Errorf("purge catalog: %w", err)
	}
	return nil
}
