package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "BACKEND_URL", "KV_BACKEND", "CORS_ALLOWED_ORIGINS", "STATUS_WATCH_ATTEMPTS"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.KVBackend != KVMemory {
		t.Fatalf("expected memory kv backend, got %q", cfg.KVBackend)
	}
	if cfg.BackendURL != "http://localhost:8001/api" {
		t.Fatalf("unexpected backend url %q", cfg.BackendURL)
	}
	if cfg.StatusWatch.Attempts != 6 || cfg.StatusWatch.Initial != 2*time.Second {
		t.Fatalf("unexpected watch config %+v", cfg.StatusWatch)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://shop.example.com/api/")
	t.Setenv("KV_BACKEND", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("ENABLE_TRACING", "1")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("BACKEND_TIMEOUT_SECONDS", "4")
	t.Setenv("VISITOR_IDLE_MINUTES", "bogus")

	cfg := FromEnv()
	if cfg.BackendURL != "https://shop.example.com/api" {
		t.Fatalf("trailing slash should be trimmed, got %q", cfg.BackendURL)
	}
	if cfg.KVBackend != KVRedis || cfg.RedisDB != 3 || !cfg.CookieSecure || !cfg.TracingEnabled {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.BackendTimeout != 4*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.BackendTimeout)
	}
	if cfg.VisitorIdleTimeout != 30*time.Minute {
		t.Fatalf("invalid value should fall back to default, got %v", cfg.VisitorIdleTimeout)
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PUBLIC_ORIGIN=https://dotenv.example.com\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	os.Unsetenv("PUBLIC_ORIGIN")
	t.Cleanup(func() { os.Unsetenv("PUBLIC_ORIGIN") })

	cfg := Load(path)
	if cfg.PublicOrigin != "https://dotenv.example.com" {
		t.Fatalf("expected origin from .env, got %q", cfg.PublicOrigin)
	}
}
