package facedir

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const collectionTable = "face_collection"

// HNSW scans return at most ef_search rows before the similarity and
// exclusion filters run, so searches widen it past the requested limit.
const (
	minEfSearch = 40
	maxEfSearch = 1000
)

func efSearchFor(maxFaces int) int {
	ef := maxFaces * 4
	if ef < minEfSearch {
		ef = minEfSearch
	}
	if ef > maxEfSearch {
		ef = maxEfSearch
	}
	return ef
}

// Collection is a Directory that keeps face embeddings in a pgvector table
// and ranks them by cosine similarity.
type Collection struct {
	pool        *pgxpool.Pool
	embedder    Embedder
	minDetScore float64
	logger      *slog.Logger
}

func NewCollection(pool *pgxpool.Pool, embedder Embedder, minDetScore float64, logger *slog.Logger) *Collection {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection{
		pool:        pool,
		embedder:    embedder,
		minDetScore: minDetScore,
		logger:      logger.With("component", "facedir"),
	}
}

// EnsureSchema creates the vector extension, the collection table and its
// cosine index.
func (c *Collection) EnsureSchema(ctx context.Context, dim int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			face_id           TEXT PRIMARY KEY,
			external_image_id TEXT NOT NULL DEFAULT '',
			embedding         vector(%d) NOT NULL,
			confidence        REAL NOT NULL DEFAULT 0,
			bbox_left         REAL NOT NULL DEFAULT 0,
			bbox_top          REAL NOT NULL DEFAULT 0,
			bbox_width        REAL NOT NULL DEFAULT 0,
			bbox_height       REAL NOT NULL DEFAULT 0,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, collectionTable, dim),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_embedding ON %[1]s USING hnsw (embedding vector_cosine_ops)`, collectionTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_external ON %[1]s (external_image_id)`, collectionTable),
	}
	for _, stmt := range stmts {
		if _, err := c.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure face collection schema: %w", err)
		}
	}
	return nil
}

func (c *Collection) detect(ctx context.Context, img []byte, filter QualityFilter, maxFaces int) ([]FaceDetection, image.Config, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, cfg, fmt.Errorf("decode image header: %w", err)
	}
	dets, err := c.embedder.DetectFaces(ctx, img)
	if err != nil {
		return nil, cfg, fmt.Errorf("detect faces: %w", err)
	}
	faces := selectFaces(dets, filter, c.minDetScore, maxFaces)
	if len(faces) == 0 {
		return nil, cfg, ErrNoFaceDetected
	}
	return faces, cfg, nil
}

// IndexFace stores up to opts.MaxFaces faces from img and returns the best
// one.
func (c *Collection) IndexFace(ctx context.Context, img []byte, opts IndexOptions) (*IndexedFace, error) {
	faces, cfg, err := c.detect(ctx, img, opts.QualityFilter, opts.MaxFaces)
	if err != nil {
		return nil, err
	}

	indexed := make([]IndexedFace, 0, len(faces))
	batch := &pgx.Batch{}
	for _, f := range faces {
		face := IndexedFace{
			FaceID:          uuid.NewString(),
			ExternalImageID: opts.ExternalImageID,
			Confidence:      float32(f.DetScore * 100),
			BoundingBox:     toBoundingBox(f.BBox, cfg.Width, cfg.Height),
		}
		sqlStr, args, err := psql.Insert(collectionTable).
			Columns("face_id", "external_image_id", "embedding", "confidence",
				"bbox_left", "bbox_top", "bbox_width", "bbox_height").
			Values(face.FaceID, face.ExternalImageID, pgvector.NewVector(f.Embedding), face.Confidence,
				face.BoundingBox.Left, face.BoundingBox.Top, face.BoundingBox.Width, face.BoundingBox.Height).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build insert: %w", err)
		}
		batch.Queue(sqlStr, args...)
		indexed = append(indexed, face)
	}

	if err := c.pool.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("insert faces: %w", err)
	}

	c.logger.Debug("faces indexed",
		"face_id", indexed[0].FaceID,
		"external_image_id", opts.ExternalImageID,
		"count", len(indexed),
	)
	return &indexed[0], nil
}

func (c *Collection) SearchFaces(ctx context.Context, faceID string, threshold float32, maxFaces int) ([]Candidate, error) {
	var vec pgvector.Vector
	err := c.pool.QueryRow(ctx,
		`SELECT embedding FROM `+collectionTable+` WHERE face_id = $1`, faceID,
	).Scan(&vec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFaceNotFound
		}
		return nil, fmt.Errorf("load face %s: %w", faceID, err)
	}
	return c.search(ctx, vec, threshold, maxFaces, faceID)
}

// SearchFacesByImage searches with the most confident face found in img.
func (c *Collection) SearchFacesByImage(ctx context.Context, img []byte, threshold float32, maxFaces int) ([]Candidate, error) {
	faces, _, err := c.detect(ctx, img, QualityNone, 1)
	if err != nil {
		return nil, err
	}
	return c.search(ctx, pgvector.NewVector(faces[0].Embedding), threshold, maxFaces, "")
}

func (c *Collection) search(ctx context.Context, vec pgvector.Vector, threshold float32, maxFaces int, exclude string) ([]Candidate, error) {
	if maxFaces <= 0 {
		maxFaces = 100
	}

	q := psql.Select("face_id", "external_image_id").
		Column(sq.Expr("1 - (embedding <=> ?) AS similarity", vec)).
		From(collectionTable).
		Where(sq.Expr("1 - (embedding <=> ?) >= ?", vec, float64(threshold)/100)).
		OrderByClause("embedding <=> ?", vec).
		Limit(uint64(maxFaces))
	if exclude != "" {
		q = q.Where(sq.NotEq{"face_id": exclude})
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search: %w", err)
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin search: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", efSearchFor(maxFaces))); err != nil {
		return nil, fmt.Errorf("set ef_search: %w", err)
	}

	rows, err := tx.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("search faces: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var cand Candidate
		var similarity float64
		if err := rows.Scan(&cand.FaceID, &cand.ExternalImageID, &similarity); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		cand.Similarity = float32(similarity * 100)
		out = append(out, cand)
	}
	return out, rows.Err()
}

func (c *Collection) DeleteFaces(ctx context.Context, faceIDs []string) (int, error) {
	if len(faceIDs) == 0 {
		return 0, nil
	}
	sqlStr, args, err := psql.Delete(collectionTable).Where(sq.Eq{"face_id": faceIDs}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	tag, err := c.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("delete faces: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (c *Collection) ListFaces(ctx context.Context) ([]string, error) {
	rows, err := c.pool.Query(ctx, `SELECT face_id FROM `+collectionTable+` ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list faces: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan face id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
