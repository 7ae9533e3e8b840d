package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

const envPrefix = "APP_"

var (
	ErrPGUserRequired     = errors.New("APP_PG_USER environment variable is required")
	ErrPGPasswordRequired = errors.New("APP_PG_PASSWORD environment variable is required")
	ErrPGDatabaseRequired = errors.New("APP_PG_DATABASE environment variable is required")
)

// Config holds the application configuration loaded from APP_-prefixed
// environment variables.
type Config struct {
	PGHost     string
	PGPort     int
	PGUser     string
	PGPassword string
	PGDatabase string

	// VectorTableName is the logical table name; the backing table is
	// created as data_<VectorTableName>.
	VectorTableName string
	// EmbedDim is the configured embedding dimension. The model binding may
	// override it with the probed dimension at startup.
	EmbedDim int

	OllamaBaseURL  string
	ChatModel      string
	EmbeddingModel string

	DataFolder string
}

// Load reads configuration from the environment, applying defaults for
// everything except the database credentials.
func Load() (*Config, error) {
	cfg := &Config{
		PGHost:          getString("PG_HOST", "localhost"),
		PGPort:          getInt("PG_PORT", 5432),
		PGUser:          getString("PG_USER", ""),
		PGPassword:      getString("PG_PASSWORD", ""),
		PGDatabase:      getString("PG_DATABASE", ""),
		VectorTableName: getString("VECTOR_TABLE_NAME", "documents"),
		EmbedDim:        getInt("EMBED_DIM", 768),
		OllamaBaseURL:   getString("OLLAMA_BASE_URL", "http://localhost:11434"),
		ChatModel:       getString("CHAT_MODEL", "gemma3:4b"),
		EmbeddingModel:  getString("EMBEDDING_MODEL", "embeddinggemma"),
		DataFolder:      getString("DATA_FOLDER", "data"),
	}

	if cfg.PGUser == "" {
		return nil, ErrPGUserRequired
	}
	if cfg.PGPassword == "" {
		return nil, ErrPGPasswordRequired
	}
	if cfg.PGDatabase == "" {
		return nil, ErrPGDatabaseRequired
	}

	if err := os.MkdirAll(cfg.DataFolder, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data folder %s: %w", cfg.DataFolder, err)
	}

	return cfg, nil
}

// DatabaseURL constructs the PostgreSQL connection URL.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

func getString(key, fallback string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
