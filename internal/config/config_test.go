package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SKYBOOK_ENV", "production")
	for _, k := range []string{"SKYBOOK_HTTP_ADDR", "SKYBOOK_CATALOG_SOURCE", "SKYBOOK_TZ", "SKYBOOK_SEARCH_CACHE_TTL", "SKYBOOK_CORS_ORIGINS", "SKYBOOK_CURRENCY"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Catalog.Source != SourcePostgres {
		t.Errorf("source = %q", cfg.Catalog.Source)
	}
	if cfg.Pricing.Location.String() != "Europe/Budapest" {
		t.Errorf("location = %s", cfg.Pricing.Location)
	}
	if cfg.Search.CacheTTL != 5*time.Minute {
		t.Errorf("ttl = %s", cfg.Search.CacheTTL)
	}
	if cfg.Pricing.Currency != "HUF" {
		t.Errorf("currency = %q", cfg.Pricing.Currency)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SKYBOOK_ENV", "production")
	t.Setenv("SKYBOOK_CATALOG_SOURCE", "MOCK")
	t.Setenv("SKYBOOK_TZ", "UTC")
	t.Setenv("SKYBOOK_SEARCH_CACHE_TTL", "30")
	t.Setenv("SKYBOOK_CORS_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Catalog.Source != SourceMock {
		t.Errorf("source = %q", cfg.Catalog.Source)
	}
	if cfg.Pricing.Location != time.UTC {
		t.Errorf("location = %s", cfg.Pricing.Location)
	}
	if cfg.Search.CacheTTL != 30*time.Second {
		t.Errorf("ttl = %s", cfg.Search.CacheTTL)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.CORSOrigins[1] != "https://b.example" {
		t.Errorf("origins = %v", cfg.HTTP.CORSOrigins)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SKYBOOK_ENV", "production")

	t.Setenv("SKYBOOK_CATALOG_SOURCE", "sqlite")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown catalogue source")
	}

	t.Setenv("SKYBOOK_CATALOG_SOURCE", "")
	t.Setenv("SKYBOOK_TZ", "Mars/Olympus")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown time zone")
	}
}
