// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// StripeConfig configures the billing gateway.
type StripeConfig struct {
	SecretKey string
}

// TracingConfig configures the OTLP exporter.
type TracingConfig struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

// Config is the full service configuration. Values come from DEBUGCV_*
// environment variables, with a .env file loaded first when present.
type Config struct {
	Environment    string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string

	// DatabaseURL selects the gorm driver: postgres:// URLs use the
	// Postgres driver, anything else is treated as a sqlite DSN.
	DatabaseURL string

	// ServiceToken is the shared bearer token business actions present on
	// /v1 routes. Empty disables auth (local development only).
	ServiceToken string

	// PlanCacheTTL bounds plan-tier staleness: a cancelled subscription
	// keeps its pro tier for at most this long. Zero disables caching.
	PlanCacheTTL time.Duration

	// SeedDemoData seeds a demo principal outside production.
	SeedDemoData bool

	Stripe  StripeConfig
	Tracing TracingConfig
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:    envOr("DEBUGCV_ENV", "development"),
		ServiceName:    envOr("DEBUGCV_SERVICE_NAME", "debugcv-entitlements"),
		ServiceVersion: envOr("DEBUGCV_SERVICE_VERSION", "dev"),
		HTTPAddr:       envOr("DEBUGCV_HTTP_ADDR", ":8080"),
		DatabaseURL:    envOr("DEBUGCV_DATABASE_URL", "file:debugcv.db?cache=shared"),
		ServiceToken:   strings.TrimSpace(os.Getenv("DEBUGCV_SERVICE_TOKEN")),
		SeedDemoData:   envBool("DEBUGCV_SEED_DEMO_DATA", true),
		Stripe: StripeConfig{
			SecretKey: strings.TrimSpace(os.Getenv("DEBUGCV_STRIPE_SECRET_KEY")),
		},
		Tracing: TracingConfig{
			Enabled:          envBool("DEBUGCV_TRACING_ENABLED", false),
			ExporterEndpoint: strings.TrimSpace(os.Getenv("DEBUGCV_OTLP_ENDPOINT")),
			ExporterProtocol: envOr("DEBUGCV_OTLP_PROTOCOL", "grpc"),
			SamplingRatio:    envFloat("DEBUGCV_TRACE_SAMPLING_RATIO", 0.1),
		},
	}

	ttl, err := envDuration("DEBUGCV_PLAN_CACHE_TTL", 2*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.PlanCacheTTL = ttl

	if cfg.IsProduction() && cfg.ServiceToken == "" {
		return Config{}, fmt.Errorf("DEBUGCV_SERVICE_TOKEN is required in production")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

// Module provides Config to the fx graph.
var Module = fx.Module("config",
	fx.Provide(Load),
)
