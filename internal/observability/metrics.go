package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IngestionAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "photospotter",
		Name:      "ingestion_attempts_total",
		Help:      "Face indexing attempts by outcome",
	}, []string{"outcome"})

	IngestionResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "photospotter",
		Name:      "ingestion_results_total",
		Help:      "Completed face ingestions by final result",
	}, []string{"result"})

	IngestionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "photospotter",
		Name:      "ingestion_duration_seconds",
		Help:      "Duration of ingestion stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"stage"})

	ReconcileCandidates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "photospotter",
		Name:      "reconcile_candidates_total",
		Help:      "Search candidates seen during reconciliation by outcome",
	}, []string{"outcome"})

	MatchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "photospotter",
		Name:      "matches_created_total",
		Help:      "Total number of guest/photo matches persisted",
	})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "photospotter",
		Name:      "notifications_total",
		Help:      "Guest notifications by result",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "photospotter",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	NotificationQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "photospotter",
		Name:      "notification_queue_depth",
		Help:      "Pending messages in the NOTIFICATIONS stream",
	})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "photospotter",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
