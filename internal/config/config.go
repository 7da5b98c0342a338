package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	OpenAIAPIKey       string
	CompletionBaseURL  string
	CompletionModel    string
	EmbeddingBaseURL   string
	EmbeddingModel     string
	EmbeddingDimension int

	QdrantURL              string
	Collection             string
	CollectionAlternatives []string
	CollectionNamespace    string

	TopK               int
	ContextTokenBudget int

	DBPath  string
	APIPort string

	CompletionTimeout time.Duration
	EmbeddingTimeout  time.Duration

	// EmbeddingZeroFallback substitutes an all-zero query vector when the
	// embedding provider fails. Off by default: a zero vector makes an
	// outage look like "no similar documents".
	EmbeddingZeroFallback bool

	// StrictStartup makes collection resolution failures fatal at boot
	// instead of deferring resolution to the first request.
	StrictStartup bool

	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded
// automatically. Environment variables already set take precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Walk up to find a project-root .env (next to go.mod)
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		CompletionBaseURL:   getEnv("COMPLETION_BASE_URL", "https://api.openai.com"),
		CompletionModel:     getEnv("COMPLETION_MODEL", "gpt-4o-mini"),
		EmbeddingBaseURL:    getEnv("EMBEDDING_BASE_URL", "https://api.openai.com"),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		QdrantURL:           getEnv("QDRANT_URL", "http://localhost:6333"),
		Collection:          getEnv("QDRANT_COLLECTION", "source_abstract"),
		CollectionNamespace: getEnv("QDRANT_NAMESPACE", "colombia_data_qaps"),
		DBPath:              getEnv("DB_PATH", "./data/ventana-ai.db"),
		APIPort:             getEnv("API_PORT", "8000"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	// Alternative collection names, tried in order after the primary.
	alternatives := getEnv("QDRANT_COLLECTION_ALTERNATIVES", "default_"+cfg.Collection)
	for _, name := range strings.Split(alternatives, ",") {
		name = strings.TrimSpace(name)
		if name != "" && name != cfg.Collection {
			cfg.CollectionAlternatives = append(cfg.CollectionAlternatives, name)
		}
	}

	// EMBEDDING_DIMENSION must match the output size of the embedding model.
	// The collection's own dimension is discovered at resolution time and is
	// authoritative for search; this value sizes the zero-vector fallback and
	// the startup probe.
	dimension, err := getEnvInt("EMBEDDING_DIMENSION", 1536)
	if err != nil {
		return nil, err
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIMENSION must be greater than 0")
	}
	cfg.EmbeddingDimension = dimension

	if cfg.TopK, err = getEnvInt("TOP_K", 5); err != nil {
		return nil, err
	}
	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("TOP_K must be greater than 0")
	}

	if cfg.ContextTokenBudget, err = getEnvInt("CONTEXT_TOKEN_BUDGET", 0); err != nil {
		return nil, err
	}

	completionTimeout, err := getEnvInt("COMPLETION_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	cfg.CompletionTimeout = time.Duration(completionTimeout) * time.Second

	embeddingTimeout, err := getEnvInt("EMBEDDING_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.EmbeddingTimeout = time.Duration(embeddingTimeout) * time.Second

	cfg.EmbeddingZeroFallback = getEnvBool("EMBEDDING_ZERO_FALLBACK", false)
	cfg.StrictStartup = getEnvBool("STRICT_STARTUP", false)

	switch strings.ToLower(getEnv("LOG_LEVEL", "info")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "info":
		cfg.LogLevel = slog.LevelInfo
	case "warn", "warning":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json")
	}

	// Create the data directory for the SQLite file if needed.
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return parsed, nil
}

// getEnvBool parses a boolean environment variable or returns a default value.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
