package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/photospotter/internal/api/handlers"
	"github.com/your-org/photospotter/internal/auth"
	"github.com/your-org/photospotter/internal/facedir"
	"github.com/your-org/photospotter/internal/imageproc"
	"github.com/your-org/photospotter/internal/ingestion"
	"github.com/your-org/photospotter/internal/matching"
	"github.com/your-org/photospotter/internal/mock"
	"github.com/your-org/photospotter/internal/retry"
	"github.com/your-org/photospotter/internal/service"
	"github.com/your-org/photospotter/pkg/dto"
)

const (
	testSecret = "test-secret"
	testAPIKey = "admin-key"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router  *gin.Engine
	catalog *mock.Catalog
	dir     *mock.Directory
	objects *mock.ObjectStore
	pub     *mock.MatchPublisher
}

func newTestEnv(t *testing.T, checks map[string]handlers.Check) *testEnv {
	t.Helper()
	env := &testEnv{
		catalog: mock.NewCatalog(),
		dir:     mock.NewDirectory(),
		objects: mock.NewObjectStore(),
		pub:     &mock.MatchPublisher{},
	}

	pipeline := ingestion.New(env.dir, env.catalog, ingestion.Config{
		Normalize: imageproc.DefaultOptions(),
		Retry:     retry.Policy{MaxAttempts: 3, Delay: time.Millisecond, Strategy: retry.StrategyConstant},
	}, nil)
	announcer := service.NewMatchAnnouncer(env.catalog, env.pub, true, nil)
	engine := matching.NewEngine(env.catalog, env.dir, announcer, matching.DefaultConfig(), nil)

	env.router = NewRouter(RouterConfig{
		APIKey:         testAPIKey,
		JWTSecret:      testSecret,
		RequestTimeout: 5 * time.Second,
		MaxUploadBytes: 1 << 20,
		Events:         service.NewEventService(env.catalog, nil),
		Guests:         service.NewGuestService(env.catalog, env.objects, pipeline, nil),
		Photos:         service.NewPhotoService(env.catalog, env.objects, pipeline, 0, nil),
		Matches:        service.NewMatchService(env.catalog, engine),
		Cleanup:        service.NewCleanupService(env.catalog, env.objects, env.dir, nil),
		Checks:         checks,
	})
	return env
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 8), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func token(t *testing.T, subject string) string {
	t.Helper()
	tok, err := auth.IssueToken(testSecret, subject, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func multipartRequest(t *testing.T, path string, fields map[string]string, fileField string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, "upload.png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(file); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func (env *testEnv) do(req *http.Request, bearer string) *httptest.ResponseRecorder {
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func (env *testEnv) createEvent(t *testing.T, owner string) dto.EventResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/events", bytes.NewBufferString(`{"name":"Gala","date":"2026-06-01"}`))
	req.Header.Set("Content-Type", "application/json")
	w := env.do(req, token(t, owner))
	if w.Code != http.StatusCreated {
		t.Fatalf("create event: %d %s", w.Code, w.Body.String())
	}
	return decode[dto.EventResponse](t, w)
}

func TestSystemEndpoints(t *testing.T) {
	env := newTestEnv(t, map[string]handlers.Check{
		"postgres": func(context.Context) error { return nil },
		"nats":     func(context.Context) error { return errors.New("not connected") },
	})

	if w := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil), ""); w.Code != http.StatusOK {
		t.Errorf("healthz = %d", w.Code)
	}

	w := env.do(httptest.NewRequest(http.MethodGet, "/readyz", nil), "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz = %d, want 503", w.Code)
	}
}

func TestEvents(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/events", bytes.NewBufferString(`{"name":"Gala","date":"2026-06-01"}`))
	req.Header.Set("Content-Type", "application/json")
	if w := env.do(req, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("create without token = %d, want 401", w.Code)
	}

	event := env.createEvent(t, "org-1")
	if event.OwnerID != "org-1" || event.Date != "2026-06-01" {
		t.Errorf("unexpected event %+v", event)
	}

	w := env.do(httptest.NewRequest(http.MethodGet, "/v1/events/"+event.ID.String(), nil), "")
	if w.Code != http.StatusOK {
		t.Errorf("get event = %d", w.Code)
	}

	list := decode[dto.EventListResponse](t, env.do(httptest.NewRequest(http.MethodGet, "/v1/events", nil), ""))
	if list.Total != 1 {
		t.Errorf("expected one event, got %d", list.Total)
	}

	if w := env.do(httptest.NewRequest(http.MethodGet, "/v1/events/not-a-uuid", nil), ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", w.Code)
	}
}

func TestGuestRegistrationAndMatching(t *testing.T) {
	env := newTestEnv(t, nil)
	event := env.createEvent(t, "org-1")
	img := pngBytes(t)

	w := env.do(multipartRequest(t, "/v1/guests", map[string]string{
		"name": "Ann", "email": "ann@example.com", "phone": "+15555550100", "eventId": event.ID.String(),
	}, "selfie", img), "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register guest: %d %s", w.Code, w.Body.String())
	}
	guest := decode[dto.GuestResponse](t, w)

	w = env.do(multipartRequest(t, "/v1/photos", map[string]string{"eventId": event.ID.String()}, "photo", img), token(t, "org-1"))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload photo: %d %s", w.Code, w.Body.String())
	}
	photo := decode[dto.PhotoResponse](t, w)

	stored, _ := env.catalog.GetGuest(context.Background(), guest.ID)
	env.dir.Similar[stored.FaceID] = []facedir.Candidate{
		{FaceID: "face-x", ExternalImageID: photo.ID.String(), Similarity: 92},
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/v1/matches?guestId="+guest.ID.String(), nil), "")
	if w.Code != http.StatusOK {
		t.Fatalf("matches: %d %s", w.Code, w.Body.String())
	}
	matches := decode[dto.MatchListResponse](t, w)
	if matches.Total != 1 || matches.Matches[0].PhotoID != photo.ID || matches.Matches[0].Confidence != 92 {
		t.Fatalf("unexpected matches %+v", matches)
	}
	if matches.Matches[0].Photo.URL != photo.URL {
		t.Errorf("expected photo attached to match")
	}

	// Second lookup returns the same persisted match.
	again := decode[dto.MatchListResponse](t, env.do(httptest.NewRequest(http.MethodGet, "/v1/matches?guestId="+guest.ID.String(), nil), ""))
	if again.Total != 1 || again.Matches[0].ID != matches.Matches[0].ID {
		t.Errorf("expected idempotent lookup, got %+v", again)
	}
	if len(env.catalog.Matches()) != 1 {
		t.Errorf("expected one stored match, got %d", len(env.catalog.Matches()))
	}
	if len(env.pub.Notices()) != 1 || len(env.pub.Notifications()) != 1 {
		t.Errorf("expected one notice and one notification, got %d and %d", len(env.pub.Notices()), len(env.pub.Notifications()))
	}
}

func TestGuestRegistrationValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	event := env.createEvent(t, "org-1")

	w := env.do(multipartRequest(t, "/v1/guests", map[string]string{
		"name": "Ann", "email": "ann@example.com", "phone": "+15555550100", "eventId": event.ID.String(),
	}, "", nil), "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing selfie = %d, want 400", w.Code)
	}

	w = env.do(multipartRequest(t, "/v1/guests", map[string]string{
		"name": "Ann", "email": "ann@example.com", "eventId": event.ID.String(),
	}, "selfie", pngBytes(t)), "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing phone = %d, want 400", w.Code)
	}
	if env.dir.IndexCalls != 0 {
		t.Error("selfie should not be indexed for a rejected registration")
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/v1/guests", nil), "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("list without eventId = %d, want 400", w.Code)
	}
}

func TestUploadBodyLimit(t *testing.T) {
	env := newTestEnv(t, nil)
	event := env.createEvent(t, "org-1")
	oversized := make([]byte, 3<<20)

	req := multipartRequest(t, "/v1/guests", map[string]string{
		"name": "Ann", "email": "ann@example.com", "phone": "+15555550100", "eventId": event.ID.String(),
	}, "selfie", oversized)
	if w := env.do(req, ""); w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("declared oversized body = %d, want 413", w.Code)
	}

	req = multipartRequest(t, "/v1/photos", map[string]string{"eventId": event.ID.String()}, "photo", oversized)
	req.ContentLength = -1
	w := env.do(req, token(t, "org-1"))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("streamed oversized body = %d, want 413: %s", w.Code, w.Body.String())
	}
	if env.objects.Len() != 0 || env.dir.IndexCalls != 0 {
		t.Error("expected nothing stored for rejected uploads")
	}
}

func TestPhotoOwnership(t *testing.T) {
	env := newTestEnv(t, nil)
	event := env.createEvent(t, "org-1")
	img := pngBytes(t)

	w := env.do(multipartRequest(t, "/v1/photos", map[string]string{"eventId": event.ID.String()}, "photo", img), token(t, "org-2"))
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign upload = %d, want 403", w.Code)
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/v1/photos?eventId="+event.ID.String(), nil), token(t, "org-2"))
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign list = %d, want 403", w.Code)
	}

	w = env.do(multipartRequest(t, "/v1/matches/search", map[string]string{"eventId": event.ID.String()}, "image", img), token(t, "org-2"))
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign probe = %d, want 403", w.Code)
	}
}

func TestProbeSearch(t *testing.T) {
	env := newTestEnv(t, nil)
	event := env.createEvent(t, "org-1")
	img := pngBytes(t)
	tok := token(t, "org-1")

	photo := decode[dto.PhotoResponse](t, env.do(multipartRequest(t, "/v1/photos", map[string]string{"eventId": event.ID.String()}, "photo", img), tok))
	env.dir.ImageCandidates = []facedir.Candidate{{FaceID: "f", ExternalImageID: photo.ID.String(), Similarity: 88}}

	w := env.do(multipartRequest(t, "/v1/matches/search", map[string]string{"eventId": event.ID.String()}, "image", img), tok)
	if w.Code != http.StatusOK {
		t.Fatalf("probe: %d %s", w.Code, w.Body.String())
	}
	resp := decode[dto.ProbeSearchResponse](t, w)
	if resp.Total != 1 || resp.Matches[0].PhotoID != photo.ID {
		t.Errorf("unexpected probe result %+v", resp)
	}
	if len(env.catalog.Matches()) != 0 {
		t.Error("probe search must not persist matches")
	}
}

func TestMatchesErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	if w := env.do(httptest.NewRequest(http.MethodGet, "/v1/matches", nil), ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing guestId = %d, want 400", w.Code)
	}
	w := env.do(httptest.NewRequest(http.MethodGet, "/v1/matches?guestId=6f1c3a52-9d2e-4b8f-8a43-4c7f1e2d9b10", nil), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown guest = %d, want 404", w.Code)
	}

	env.dir.SearchError = errors.New("search backend down")
	event := env.createEvent(t, "org-1")
	guest := decode[dto.GuestResponse](t, env.do(multipartRequest(t, "/v1/guests", map[string]string{
		"name": "Ann", "email": "ann@example.com", "phone": "+15555550100", "eventId": event.ID.String(),
	}, "selfie", pngBytes(t)), ""))

	w = env.do(httptest.NewRequest(http.MethodGet, "/v1/matches?guestId="+guest.ID.String(), nil), "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("lookup failure = %d, want 500", w.Code)
	}
	body := decode[map[string]string](t, w)
	if body["error"] != "search faces" {
		t.Errorf("unexpected error body %v", body)
	}
}

func TestAdminCleanup(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createEvent(t, "org-1")
	env.dir.AddFaces("a", "b")

	if w := env.do(httptest.NewRequest(http.MethodPost, "/v1/admin/cleanup", nil), ""); w.Code != http.StatusUnauthorized {
		t.Errorf("cleanup without key = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/cleanup", nil)
	req.Header.Set("X-API-Key", testAPIKey)
	w := env.do(req, "")
	if w.Code != http.StatusOK {
		t.Fatalf("cleanup = %d %s", w.Code, w.Body.String())
	}
	if resp := decode[dto.CleanupResponse](t, w); resp.Faces != 2 {
		t.Errorf("expected 2 faces removed, got %+v", resp)
	}
	if events, _ := env.catalog.ListEvents(context.Background()); len(events) != 0 {
		t.Error("expected catalog purged")
	}
}
