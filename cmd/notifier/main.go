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

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/photospotter/internal/config"
	"github.com/your-org/photospotter/internal/notify"
	"github.com/your-org/photospotter/internal/observability"
	"github.com/your-org/photospotter/internal/queue"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	metricsAddr := flag.String("metrics-addr", ":8082", "metrics listen address")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting PhotoSpotter notifier", "workers", cfg.WhatsApp.Workers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := os.MkdirAll(cfg.WhatsApp.DataDir, 0o755); err != nil {
		slog.Error("create whatsapp data dir", "error", err)
		os.Exit(1)
	}

	sender, err := notify.NewWhatsAppSender(ctx, cfg.WhatsApp.DataDir)
	if err != nil {
		slog.Error("init whatsapp", "error", err)
		os.Exit(1)
	}
	if err := sender.Connect(ctx); err != nil {
		slog.Error("connect whatsapp", "error", err)
		os.Exit(1)
	}
	defer sender.Close()

	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(ctx); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	dispatcher := notify.NewDispatcher(sender, logger)

	err = consumer.ConsumeNotifications(ctx, "notifiers", func(ctx context.Context, msg jetstream.Msg) error {
		n, err := queue.DecodeNotification(msg)
		if err != nil {
			return err
		}
		return dispatcher.Deliver(ctx, n)
	}, cfg.WhatsApp.Workers)
	if err != nil {
		slog.Error("start notification consumer", "error", err)
		os.Exit(1)
	}

	// Metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		slog.Info("notifier metrics listening", "addr", *metricsAddr)
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			slog.Error("metrics server error", "error", err)
		}
	}()

	// Periodically report queue depth
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				depth, err := producer.QueueDepth(ctx)
				if err == nil {
					observability.NotificationQueueDepth.Set(float64(depth))
				}
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down notifier...")
	cancel()
	time.Sleep(2 * time.Second)
	slog.Info("notifier stopped")
}
