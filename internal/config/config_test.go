package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("CHAT_ACTION_TIMEOUT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.ChatActionTimeout != 5*time.Second {
		t.Fatalf("expected default action timeout, got %s", cfg.ChatActionTimeout)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Fatalf("expected default jwt ttl, got %s", cfg.JWTTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected default cors origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.IsProduction() {
		t.Fatal("development config reported as production")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("CHAT_TRANSCRIPT_STORE", " Redis ")
	t.Setenv("CHAT_ACTION_TIMEOUT", "750ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("SEED_DOCTORS", "false")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Fatal("expected production env")
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.ChatTranscriptStore != "redis" {
		t.Fatalf("expected normalized transcript store, got %q", cfg.ChatTranscriptStore)
	}
	if cfg.ChatActionTimeout != 750*time.Millisecond {
		t.Fatalf("expected timeout override, got %s", cfg.ChatActionTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected two origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rps override, got %v", cfg.RateLimitRPS)
	}
	if cfg.SeedDoctors {
		t.Fatal("expected doctor seeding disabled")
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "lots")
	t.Setenv("JWT_TTL", "forever")
	cfg := Load()
	if cfg.RateLimitBurst != 20 {
		t.Fatalf("expected default burst, got %d", cfg.RateLimitBurst)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Fatalf("expected default ttl, got %s", cfg.JWTTTL)
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "UTC"}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC location")
	}
	cfg.Timezone = "Not/AZone"
	if cfg.Location() != time.Local {
		t.Fatalf("expected fallback to local")
	}
}
