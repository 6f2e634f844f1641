package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != "development" {
		t.Fatalf("Environment = %q", cfg.Environment)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.PlanCacheTTL != 2*time.Minute {
		t.Fatalf("PlanCacheTTL = %v", cfg.PlanCacheTTL)
	}
	if cfg.IsProduction() {
		t.Fatalf("development config reports production")
	}
}

func TestLoadProductionRequiresServiceToken(t *testing.T) {
	t.Setenv("DEBUGCV_ENV", "production")
	t.Setenv("DEBUGCV_SERVICE_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for production without a service token")
	}

	t.Setenv("DEBUGCV_SERVICE_TOKEN", "secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.IsProduction() || cfg.ServiceToken != "secret" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadParsesDurations(t *testing.T) {
	t.Setenv("DEBUGCV_PLAN_CACHE_TTL", "45s")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PlanCacheTTL != 45*time.Second {
		t.Fatalf("PlanCacheTTL = %v", cfg.PlanCacheTTL)
	}

	t.Setenv("DEBUGCV_PLAN_CACHE_TTL", "not-a-duration")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed duration")
	}
}
