package storage

import (
	"testing"

	"github.com/google/uuid"

	"github.com/your-org/photospotter/internal/config"
)

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MinIOConfig
		want string
	}{
		{"explicit", config.MinIOConfig{PublicURL: "https://cdn.example.com/photos/", Endpoint: "minio:9000"}, "https://cdn.example.com/photos"},
		{"plain endpoint", config.MinIOConfig{Endpoint: "minio:9000", Bucket: "originals"}, "http://minio:9000/originals"},
		{"tls endpoint", config.MinIOConfig{Endpoint: "s3.example.com", Bucket: "b", UseSSL: true}, "https://s3.example.com/b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := publicBaseURL(tt.cfg); got != tt.want {
				t.Errorf("publicBaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("6f1c2d7e-0000-4000-8000-000000000001")

	if got := objectKey(id, "image/jpeg"); got != "originals/6f1c2d7e-0000-4000-8000-000000000001.jpg" {
		t.Errorf("unexpected key %q", got)
	}
	if got := objectKey(id, "image/png; charset=binary"); got != "originals/6f1c2d7e-0000-4000-8000-000000000001.png" {
		t.Errorf("unexpected key %q", got)
	}
	if got := objectKey(id, "application/octet-stream"); got != "originals/6f1c2d7e-0000-4000-8000-000000000001" {
		t.Errorf("unexpected key %q", got)
	}
}
