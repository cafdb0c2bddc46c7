package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	NATS          NATSConfig          `yaml:"nats"`
	MinIO         MinIOConfig         `yaml:"minio"`
	FaceDirectory FaceDirectoryConfig `yaml:"face_directory"`
	Ingestion     IngestionConfig     `yaml:"ingestion"`
	Matching      MatchingConfig      `yaml:"matching"`
	WhatsApp      WhatsAppConfig      `yaml:"whatsapp"`
	Logging       LoggingConfig       `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
	// JWTSecret verifies organizer bearer tokens (HS256).
	JWTSecret      string        `yaml:"jwt_secret"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	// PublicURL is the base used to build object URLs (CDN or MinIO endpoint).
	PublicURL string `yaml:"public_url"`
}

type FaceDirectoryConfig struct {
	EmbeddingURL string        `yaml:"embedding_url"`
	Timeout      time.Duration `yaml:"timeout"`
	// MinDetScore is the detection score below which the AUTO quality
	// filter rejects a face.
	MinDetScore float64 `yaml:"min_det_score"`
	// Dimension is the embedding size produced by the embedding service.
	Dimension int `yaml:"dimension"`
}

type IngestionConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
	Backoff      string        `yaml:"backoff"` // constant | exponential
	MaxDelay     time.Duration `yaml:"max_delay"`
	MaxDimension int           `yaml:"max_dimension"`
	JPEGQuality  int           `yaml:"jpeg_quality"`
	MaxBytes     int           `yaml:"max_bytes"`
	SettleDelay  time.Duration `yaml:"settle_delay"`
}

type MatchingConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MaxCandidates       int     `yaml:"max_candidates"`
	ProbeThreshold      float64 `yaml:"probe_threshold"`
	ProbeMaxCandidates  int     `yaml:"probe_max_candidates"`
	ResolveConcurrency  int     `yaml:"resolve_concurrency"`
	NotifyGuests        bool    `yaml:"notify_guests"`
}

type WhatsAppConfig struct {
	DataDir string `yaml:"data_dir"`
	Workers int    `yaml:"workers"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
// A missing file is not an error: defaults and environment still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	presetDelays(cfg)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the services cannot start with.
func (c *Config) Validate() error {
	switch c.Ingestion.Backoff {
	case "constant", "exponential":
	default:
		return fmt.Errorf("ingestion.backoff: unknown strategy %q", c.Ingestion.Backoff)
	}
	if c.Ingestion.JPEGQuality < 1 || c.Ingestion.JPEGQuality > 100 {
		return fmt.Errorf("ingestion.jpeg_quality must be within 1..100, got %d", c.Ingestion.JPEGQuality)
	}
	if c.Ingestion.RetryDelay < 0 || c.Ingestion.SettleDelay < 0 {
		return fmt.Errorf("ingestion delays must not be negative")
	}
	if c.Matching.SimilarityThreshold < 0 || c.Matching.SimilarityThreshold > 100 {
		return fmt.Errorf("matching.similarity_threshold must be a percentage, got %v", c.Matching.SimilarityThreshold)
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 25 << 20
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = "photospotter-originals"
	}
	if cfg.FaceDirectory.EmbeddingURL == "" {
		cfg.FaceDirectory.EmbeddingURL = "http://localhost:8000"
	}
	if cfg.FaceDirectory.Timeout == 0 {
		cfg.FaceDirectory.Timeout = 30 * time.Second
	}
	if cfg.FaceDirectory.MinDetScore == 0 {
		cfg.FaceDirectory.MinDetScore = 0.5
	}
	if cfg.FaceDirectory.Dimension == 0 {
		cfg.FaceDirectory.Dimension = 512
	}
	if cfg.Ingestion.MaxAttempts == 0 {
		cfg.Ingestion.MaxAttempts = 3
	}
	if cfg.Ingestion.Backoff == "" {
		cfg.Ingestion.Backoff = "constant"
	}
	if cfg.Ingestion.MaxDelay == 0 {
		cfg.Ingestion.MaxDelay = 10 * time.Second
	}
	if cfg.Ingestion.MaxDimension == 0 {
		cfg.Ingestion.MaxDimension = 1024
	}
	if cfg.Ingestion.JPEGQuality == 0 {
		cfg.Ingestion.JPEGQuality = 90
	}
	if cfg.Ingestion.MaxBytes == 0 {
		cfg.Ingestion.MaxBytes = 5 * 1024 * 1024
	}
	if cfg.Matching.SimilarityThreshold == 0 {
		cfg.Matching.SimilarityThreshold = 70
	}
	if cfg.Matching.MaxCandidates == 0 {
		cfg.Matching.MaxCandidates = 100
	}
	if cfg.Matching.ProbeThreshold == 0 {
		cfg.Matching.ProbeThreshold = 70
	}
	if cfg.Matching.ProbeMaxCandidates == 0 {
		cfg.Matching.ProbeMaxCandidates = 5
	}
	if cfg.Matching.ResolveConcurrency == 0 {
		cfg.Matching.ResolveConcurrency = 8
	}
	if cfg.WhatsApp.DataDir == "" {
		cfg.WhatsApp.DataDir = "data"
	}
	if cfg.WhatsApp.Workers == 0 {
		cfg.WhatsApp.Workers = 2
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// presetDelays fills delays whose zero value is meaningful before the file is
// decoded, so an explicit 0s survives.
func presetDelays(cfg *Config) {
	cfg.Ingestion.RetryDelay = time.Second
	cfg.Ingestion.SettleDelay = time.Second
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PS_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("PS_JWT_SECRET"); v != "" {
		cfg.Server.JWTSecret = v
	}
	if v := os.Getenv("PS_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("PS_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("PS_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("PS_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("PS_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("PS_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("PS_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("PS_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("PS_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("PS_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("PS_MINIO_PUBLIC_URL"); v != "" {
		cfg.MinIO.PublicURL = v
	}
	if v := os.Getenv("PS_EMBEDDING_URL"); v != "" {
		cfg.FaceDirectory.EmbeddingURL = v
	}
	if v := os.Getenv("PS_INGEST_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ingestion.MaxAttempts = n
		}
	}
	if v := os.Getenv("PS_INGEST_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Ingestion.RetryDelay = d
		}
	}
	if v := os.Getenv("PS_INGEST_SETTLE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Ingestion.SettleDelay = d
		}
	}
	if v := os.Getenv("PS_WHATSAPP_DATA_DIR"); v != "" {
		cfg.WhatsApp.DataDir = v
	}
	if v := os.Getenv("PS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
