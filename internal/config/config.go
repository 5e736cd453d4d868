// Package config loads the two configuration surfaces: the site file
// (presets and generation defaults, YAML) and the service settings for the
// API/worker processes (environment variables).
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"gopkg.in/yaml.v3"

	"github.com/picset/picset/internal/markup"
	"github.com/picset/picset/internal/preset"
)

// Site is the declarative picture configuration for one site.
type Site struct {
	SourceRoot   string                    `yaml:"source_root"`
	OutputRoot   string                    `yaml:"output_root"`
	OutputSubdir string                    `yaml:"output_subdir"`
	Markup       string                    `yaml:"markup"`
	Densities    []float64                 `yaml:"densities"`
	Presets      map[string]*preset.Preset `yaml:"presets"`
}

// LoadSite reads and validates a site configuration file. Defaults:
// source_root ".", output_root ".", output_subdir "generated", markup
// "picturefill", densities [1].
func LoadSite(path string) (Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Site{}, fmt.Errorf("read site config: %w", err)
	}

	site := Site{
		SourceRoot:   ".",
		OutputRoot:   ".",
		OutputSubdir: "generated",
		Markup:       markup.ModePicturefill,
		Densities:    []float64{1},
	}
	if err := yaml.Unmarshal(data, &site); err != nil {
		return Site{}, fmt.Errorf("parse site config: %w", err)
	}

	if err := site.Validate(); err != nil {
		return Site{}, err
	}
	return site, nil
}

// Validate fails fast on configuration errors so no render starts against
// a broken preset table.
func (s Site) Validate() error {
	if !markup.Valid(s.Markup) {
		return fmt.Errorf("unknown markup mode %q (supported: %v)", s.Markup, markup.Modes())
	}
	for _, d := range s.Densities {
		if d <= 0 {
			return fmt.Errorf("density multipliers must be positive, got %v", d)
		}
	}
	for name, p := range s.Presets {
		p.Name = name
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Service holds settings for the long-running API and worker processes.
type Service struct {
	API      APIConfig
	Queue    QueueConfig
	Worker   WorkerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Webhook  WebhookConfig
	Trace    TraceConfig
}

type APIConfig struct {
	Addr            string
	RateLimit       int
	RateLimitWindow time.Duration
	UserIDHeader    string
}

type QueueConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Name          string
}

func (q QueueConfig) RedisClientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     q.RedisAddr,
		Password: q.RedisPassword,
		DB:       q.RedisDB,
	}
}

type WorkerConfig struct {
	Concurrency      int
	MaxActiveRenders int
	MetricsAddr      string
}

type DatabaseConfig struct {
	DSN string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type WebhookConfig struct {
	SigningSecret string
}

type TraceConfig struct {
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
}

// LoadService reads service settings from the environment.
func LoadService() Service {
	defaultRenderSlots := max(1, runtime.NumCPU()/2)

	return Service{
		API: APIConfig{
			Addr:            env("PICSET_API_ADDR", ":8080"),
			RateLimit:       envInt("PICSET_API_RATE_LIMIT", 60),
			RateLimitWindow: envDuration("PICSET_API_RATE_LIMIT_WINDOW", time.Minute),
			UserIDHeader:    env("PICSET_API_USER_ID_HEADER", "X-Picset-User"),
		},
		Queue: QueueConfig{
			RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
			RedisPassword: env("REDIS_PASSWORD", ""),
			RedisDB:       envInt("REDIS_DB", 0),
			Name:          env("PICSET_QUEUE", "default"),
		},
		Worker: WorkerConfig{
			Concurrency:      envInt("WORKER_CONCURRENCY", max(2, runtime.NumCPU())),
			MaxActiveRenders: envInt("WORKER_MAX_ACTIVE_RENDERS", defaultRenderSlots),
			MetricsAddr:      env("WORKER_METRICS_ADDR", ""),
		},
		Database: DatabaseConfig{
			DSN: env("POSTGRES_DSN", ""),
		},
		Storage: StorageConfig{
			Endpoint:  env("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: env("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: env("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    env("MINIO_BUCKET", "picset-site"),
			UseSSL:    envBool("MINIO_USE_SSL", false),
		},
		Webhook: WebhookConfig{
			SigningSecret: env("PICSET_WEBHOOK_SECRET", ""),
		},
		Trace: TraceConfig{
			Exporter:     env("PICSET_TRACE_EXPORTER", "none"),
			OTLPEndpoint: env("PICSET_OTLP_ENDPOINT", ""),
			OTLPInsecure: envBool("PICSET_OTLP_INSECURE", false),
		},
	}
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
