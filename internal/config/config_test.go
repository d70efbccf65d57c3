package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TYFORGE_API_BASE_URL", "")
	t.Setenv("TYFORGE_EXPORT_BUCKET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != DefaultAPIBaseURL {
		t.Fatalf("expected default base url got %q", cfg.APIBaseURL)
	}
	if cfg.Export.ObjectStore.Enabled() {
		t.Fatal("expected object store to be disabled without a bucket")
	}
	if cfg.Stub.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected token ttl %v", cfg.Stub.TokenTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TYFORGE_API_BASE_URL", "https://api.tyforge.in/")
	t.Setenv("TYFORGE_EXPORT_WORKERS", "5")
	t.Setenv("TYFORGE_STUB_TOKEN_TTL", "90m")
	t.Setenv("TYFORGE_STUB_PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "https://api.tyforge.in" {
		t.Fatalf("expected trailing slash trimmed got %q", cfg.APIBaseURL)
	}
	if cfg.Export.Workers != 5 {
		t.Fatalf("expected 5 workers got %d", cfg.Export.Workers)
	}
	if cfg.Stub.TokenTTL != 90*time.Minute {
		t.Fatalf("expected 90m ttl got %v", cfg.Stub.TokenTTL)
	}
	if cfg.Stub.Port != 8000 {
		t.Fatalf("expected fallback port got %d", cfg.Stub.Port)
	}
}
