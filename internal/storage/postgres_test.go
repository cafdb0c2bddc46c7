//go:build integration

package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/your-org/photospotter/internal/models"
)

func setupTestStore(t *testing.T) (*PostgresStore, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	pool, err := pgxpool.New(ctx, fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()))
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("create pool: %v", err)
	}

	store := NewPostgresStoreFromPool(pool)
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("migrate: %v", err)
	}

	return store, func() {
		store.Close()
		_ = container.Terminate(ctx)
	}
}

func seedEvent(t *testing.T, s *PostgresStore, owner string) *models.Event {
	t.Helper()
	e := &models.Event{Name: "Wedding", Date: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), OwnerID: owner}
	if err := s.CreateEvent(context.Background(), e); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	return e
}

func TestPostgresStore_Catalog(t *testing.T) {
	store, cleanup := setupTestStore(t)
	if store == nil {
		return
	}
	defer cleanup()
	ctx := context.Background()

	// Migrations are idempotent.
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	event := seedEvent(t, store, "org-1")

	got, err := store.GetEvent(ctx, event.ID)
	if err != nil || got == nil || got.OwnerID != "org-1" {
		t.Fatalf("GetEvent = %+v, %v", got, err)
	}
	if missing, err := store.GetEvent(ctx, uuid.New()); err != nil || missing != nil {
		t.Fatalf("expected nil, nil for missing event, got %+v, %v", missing, err)
	}

	guest := &models.Guest{Name: "Ann", Phone: "+15550100", EventID: event.ID, SelfieURL: "http://x/s.jpg", FaceID: "face-g"}
	if err := store.CreateGuest(ctx, guest); err != nil {
		t.Fatalf("CreateGuest: %v", err)
	}
	guests, err := store.ListGuestsByEvent(ctx, event.ID)
	if err != nil || len(guests) != 1 || guests[0].FaceID != "face-g" {
		t.Fatalf("ListGuestsByEvent = %+v, %v", guests, err)
	}

	taken := time.Date(2026, 6, 1, 14, 30, 0, 0, time.UTC)
	photoID := uuid.New()
	photo := &models.Photo{ID: photoID, URL: "http://x/p.jpg", EventID: event.ID, TakenAt: &taken}
	if err := store.CreatePhoto(ctx, photo); err != nil {
		t.Fatalf("CreatePhoto: %v", err)
	}
	if photo.ID != photoID {
		t.Fatal("preset photo id must be kept")
	}
	gotPhoto, err := store.GetPhoto(ctx, photoID)
	if err != nil || gotPhoto == nil || gotPhoto.TakenAt == nil || !gotPhoto.TakenAt.Equal(taken) {
		t.Fatalf("GetPhoto = %+v, %v", gotPhoto, err)
	}

	face := &models.PhotoFace{PhotoID: photoID, FaceID: "face-p", Confidence: 99.5,
		BoundingBox: models.BoundingBox{Left: 0.1, Top: 0.2, Width: 0.3, Height: 0.4}}
	if err := store.CreatePhotoFace(ctx, face); err != nil {
		t.Fatalf("CreatePhotoFace: %v", err)
	}
	byFace, err := store.ListPhotoFacesByFaceID(ctx, "face-p")
	if err != nil || len(byFace) != 1 || byFace[0].BoundingBox.Width != 0.3 {
		t.Fatalf("ListPhotoFacesByFaceID = %+v, %v", byFace, err)
	}
	byPhoto, err := store.ListPhotoFacesByPhoto(ctx, photoID)
	if err != nil || len(byPhoto) != 1 {
		t.Fatalf("ListPhotoFacesByPhoto = %+v, %v", byPhoto, err)
	}

	if err := store.PurgeAll(ctx); err != nil {
		t.Fatalf("PurgeAll: %v", err)
	}
	events, err := store.ListEvents(ctx)
	if err != nil || len(events) != 0 {
		t.Fatalf("expected empty catalog after purge, got %d events, %v", len(events), err)
	}
}

func TestPostgresStore_CreatePhotoMatchIsConditional(t *testing.T) {
	store, cleanup := setupTestStore(t)
	if store == nil {
		return
	}
	defer cleanup()
	ctx := context.Background()

	event := seedEvent(t, store, "org-1")
	guest := &models.Guest{Name: "Ann", EventID: event.ID, SelfieURL: "u", FaceID: "f"}
	if err := store.CreateGuest(ctx, guest); err != nil {
		t.Fatalf("CreateGuest: %v", err)
	}
	photo := &models.Photo{URL: "p", EventID: event.ID}
	if err := store.CreatePhoto(ctx, photo); err != nil {
		t.Fatalf("CreatePhoto: %v", err)
	}

	first := &models.PhotoMatch{PhotoID: photo.ID, GuestID: guest.ID, Confidence: 92}
	created, err := store.CreatePhotoMatch(ctx, first)
	if err != nil || !created {
		t.Fatalf("first CreatePhotoMatch = %v, %v", created, err)
	}

	second := &models.PhotoMatch{PhotoID: photo.ID, GuestID: guest.ID, Confidence: 85}
	created, err = store.CreatePhotoMatch(ctx, second)
	if err != nil || created {
		t.Fatalf("second CreatePhotoMatch = %v, %v", created, err)
	}
	if second.ID != first.ID || second.Confidence != 92 {
		t.Errorf("expected the stored row to be returned, got %+v", second)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	other := &models.Photo{URL: "p2", EventID: event.ID}
	if err := store.CreatePhoto(ctx, other); err != nil {
		t.Fatalf("CreatePhoto: %v", err)
	}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.CreatePhotoMatch(ctx, &models.PhotoMatch{PhotoID: other.ID, GuestID: guest.ID, Confidence: 80})
			if err != nil {
				t.Errorf("concurrent CreatePhotoMatch: %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Errorf("expected exactly one concurrent insert to win, got %d", wins)
	}

	matches, err := store.ListPhotoMatchesByGuest(ctx, guest.ID)
	if err != nil || len(matches) != 2 {
		t.Fatalf("ListPhotoMatchesByGuest = %d rows, %v", len(matches), err)
	}
}
