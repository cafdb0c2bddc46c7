package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/your-org/photospotter/internal/facedir"
	"github.com/your-org/photospotter/internal/storage"
)

// backends holds the connections the commands share.
type backends struct {
	db         *storage.PostgresStore
	collection *facedir.Collection
}

func connect(ctx context.Context) (*backends, error) {
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	embedder := facedir.NewEmbeddingClient(cfg.FaceDirectory.EmbeddingURL, cfg.FaceDirectory.Timeout)
	return &backends{
		db:         db,
		collection: facedir.NewCollection(db.Pool(), embedder, cfg.FaceDirectory.MinDetScore, slog.Default()),
	}, nil
}

func (b *backends) Close() {
	b.db.Close()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
