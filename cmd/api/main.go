package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/photospotter/internal/api"
	"github.com/your-org/photospotter/internal/api/handlers"
	"github.com/your-org/photospotter/internal/api/ws"
	"github.com/your-org/photospotter/internal/config"
	"github.com/your-org/photospotter/internal/facedir"
	"github.com/your-org/photospotter/internal/imageproc"
	"github.com/your-org/photospotter/internal/ingestion"
	"github.com/your-org/photospotter/internal/matching"
	"github.com/your-org/photospotter/internal/observability"
	"github.com/your-org/photospotter/internal/queue"
	"github.com/your-org/photospotter/internal/retry"
	"github.com/your-org/photospotter/internal/service"
	"github.com/your-org/photospotter/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting PhotoSpotter API", "port", cfg.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("migrate catalog", "error", err)
		os.Exit(1)
	}

	// Face collection lives next to the catalog
	embedder := facedir.NewEmbeddingClient(cfg.FaceDirectory.EmbeddingURL, cfg.FaceDirectory.Timeout)
	collection := facedir.NewCollection(db.Pool(), embedder, cfg.FaceDirectory.MinDetScore, logger)
	if err := collection.EnsureSchema(ctx, cfg.FaceDirectory.Dimension); err != nil {
		slog.Error("prepare face collection", "error", err)
		os.Exit(1)
	}

	// Connect to MinIO
	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := minioStore.EnsureBucket(ctx); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(ctx); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	// WebSocket hub fed by the MATCHES stream
	hub := ws.NewHub()
	go hub.Run(ctx)

	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create match consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	hostname, _ := os.Hostname()
	err = consumer.ConsumeMatches(ctx, "api-ws-"+hostname, func(ctx context.Context, msg jetstream.Msg) error {
		notice, err := queue.DecodeMatchNotice(msg)
		if err != nil {
			return err
		}
		hub.BroadcastMatch(notice)
		return nil
	})
	if err != nil {
		slog.Warn("start match consumer", "error", err)
	}

	normalize := imageproc.Options{
		MaxDimension: cfg.Ingestion.MaxDimension,
		Quality:      cfg.Ingestion.JPEGQuality,
		MaxBytes:     cfg.Ingestion.MaxBytes,
	}
	pipeline := ingestion.New(collection, db, ingestion.Config{
		Normalize: normalize,
		Retry: retry.Policy{
			MaxAttempts: cfg.Ingestion.MaxAttempts,
			Delay:       cfg.Ingestion.RetryDelay,
			Strategy:    cfg.Ingestion.Backoff,
			MaxDelay:    cfg.Ingestion.MaxDelay,
		},
	}, logger)

	announcer := service.NewMatchAnnouncer(db, producer, cfg.Matching.NotifyGuests, logger)
	engine := matching.NewEngine(db, collection, announcer, matching.Config{
		Threshold:          float32(cfg.Matching.SimilarityThreshold),
		MaxCandidates:      cfg.Matching.MaxCandidates,
		ProbeThreshold:     float32(cfg.Matching.ProbeThreshold),
		ProbeMaxCandidates: cfg.Matching.ProbeMaxCandidates,
		ResolveConcurrency: cfg.Matching.ResolveConcurrency,
		Normalize:          normalize,
	}, logger)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.RouterConfig{
		APIKey:         cfg.Server.APIKey,
		JWTSecret:      cfg.Server.JWTSecret,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Events:         service.NewEventService(db, logger),
		Guests:         service.NewGuestService(db, minioStore, pipeline, logger),
		Photos:         service.NewPhotoService(db, minioStore, pipeline, cfg.Ingestion.SettleDelay, logger),
		Matches:        service.NewMatchService(db, engine),
		Cleanup:        service.NewCleanupService(db, minioStore, collection, logger),
		Hub:            hub,
		Checks: map[string]handlers.Check{
			"postgres": db.Ping,
			"minio":    minioStore.Ping,
			"nats":     func(context.Context) error { return producer.Ping() },
		},
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}
