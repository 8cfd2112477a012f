package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"API_ADDR", "REDIS_URL", "DATABASE_URL", "PICKSHEET_STATE_KEY",
		"PICKSHEET_SAVE_DEBOUNCE_MS", "PICKSHEET_ARCHIVE_DIR", "MINIO_USE_SSL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Addr != ":8787" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.StateKey != "picksheet:state" {
		t.Errorf("StateKey = %q", cfg.StateKey)
	}
	if cfg.SaveDebounce != time.Second {
		t.Errorf("SaveDebounce = %v", cfg.SaveDebounce)
	}
	if cfg.MinioUseSSL {
		t.Errorf("MinioUseSSL should default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_ADDR", ":9999")
	t.Setenv("PICKSHEET_SAVE_DEBOUNCE_MS", "250")
	t.Setenv("MINIO_USE_SSL", "1")

	cfg := Load()
	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.SaveDebounce != 250*time.Millisecond {
		t.Errorf("SaveDebounce = %v", cfg.SaveDebounce)
	}
	if !cfg.MinioUseSSL {
		t.Errorf("MinioUseSSL should be true")
	}
}

func TestGetenvInt(t *testing.T) {
	t.Setenv("PICKSHEET_TEST_INT", "not-a-number")
	if got := getenvInt("PICKSHEET_TEST_INT", 7); got != 7 {
		t.Errorf("unparsable value should fall back, got %d", got)
	}
}
