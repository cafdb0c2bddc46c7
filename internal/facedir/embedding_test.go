package facedir

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestEmbeddingClient_DetectFaces(t *testing.T) {
	var gotPath, gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("expected multipart file field: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		gotFile = string(data)

		_ = json.NewEncoder(w).Encode(FaceResponse{
			FacesCount: 1,
			Faces: []FaceDetection{{
				FaceIndex: 0,
				Dim:       3,
				Embedding: []float32{0.1, 0.2, 0.3},
				BBox:      []float64{10, 20, 110, 140},
				DetScore:  0.97,
			}},
			Model: "buffalo_l",
		})
	}))
	defer srv.Close()

	c := NewEmbeddingClient(srv.URL+"/", 5*time.Second)
	faces, err := c.DetectFaces(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("DetectFaces: %v", err)
	}

	if gotPath != "/embed/face" {
		t.Errorf("expected /embed/face, got %s", gotPath)
	}
	if gotFile != "jpeg-bytes" {
		t.Errorf("expected image bytes to be posted, got %q", gotFile)
	}
	if len(faces) != 1 || faces[0].DetScore != 0.97 || len(faces[0].Embedding) != 3 {
		t.Errorf("unexpected faces %+v", faces)
	}
}

func TestEmbeddingClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewEmbeddingClient(srv.URL, time.Second).DetectFaces(context.Background(), []byte("x"))
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestEmbeddingClient_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	if _, err := NewEmbeddingClient(srv.URL, time.Second).DetectFaces(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected parse error")
	}
}
