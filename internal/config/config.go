package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr       string
	CORSOrigin string

	// State storage. A set DATABASE_URL selects the Postgres store,
	// otherwise Redis is used.
	RedisURL    string
	DatabaseURL string
	StateKey    string

	SaveDebounce time.Duration

	// Quick-save snapshot archive. Empty disables it.
	ArchiveDir string

	MeiliURL       string
	MeiliMasterKey string

	// Object storage for uploaded avatars. Empty endpoint keeps
	// uploads inline as data URLs.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Optional shared passphrase protecting write endpoints.
	EditorPassword string
}

func Load() Config {
	return Config{
		Addr:       getenv("API_ADDR", ":8787"),
		CORSOrigin: getenv("PICKSHEET_CORS_ORIGIN", "*"),

		RedisURL:    getenv("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseURL: getenv("DATABASE_URL", ""),
		StateKey:    getenv("PICKSHEET_STATE_KEY", "picksheet:state"),

		SaveDebounce: time.Duration(getenvInt("PICKSHEET_SAVE_DEBOUNCE_MS", 1000)) * time.Millisecond,

		ArchiveDir: getenv("PICKSHEET_ARCHIVE_DIR", "./data/archive"),

		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "picksheet-assets"),
		MinioUseSSL:    getenvInt("MINIO_USE_SSL", 0) == 1,

		EditorPassword: getenv("PICKSHEET_EDITOR_PASSWORD", ""),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
