package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Gemini credentials. GeminiAPIKey is the host-shared key; callers may
	// supply their own key per request instead.
	GeminiAPIKey     string
	EnableHostAPIKey bool
	HostUsageCap     int
	GeminiModel      string
	EmbeddingsModel  string
	GeminiTier       string

	// Chunking
	MaxChunkSize int
	ChunkOverlap int

	// Retrieval
	TopK int

	// Upload limits
	MaxFileSize int64

	// Vector index backend: "memory" (default) or "mongo"
	IndexBackend string
	MongoURI     string
	DBName       string

	// Redis (rate limiting)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	RateLimitReqs   int
	RateLimitWindow int

	// Telemetry
	OTelEnabled  bool
	OTLPEndpoint string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		EnableHostAPIKey: getEnvBool("ENABLE_HOST_API_KEY", true),
		HostUsageCap:     getEnvInt("HOST_USAGE_CAP", 50),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		EmbeddingsModel:  getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		GeminiTier:       getEnv("GEMINI_TIER", "free"),

		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),

		TopK: getEnvInt("TOP_K", 4),

		MaxFileSize: getEnvInt64("MAX_FILE_SIZE", 20971520), // 20MB per uploaded file

		IndexBackend: getEnv("INDEX_BACKEND", "memory"),
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017/document_query_bot"),
		DBName:       getEnv("DB_NAME", "document_query_bot"),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		OTelEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTLPEndpoint: getEnv("OTLP_ENDPOINT", "localhost:4317"),
	}

	if cfg.EnableHostAPIKey && cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required when ENABLE_HOST_API_KEY is set - set it in .env file")
	}

	if cfg.ChunkOverlap >= cfg.MaxChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than MAX_CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.MaxChunkSize)
	}

	if cfg.IndexBackend != "memory" && cfg.IndexBackend != "mongo" {
		return nil, fmt.Errorf("unknown INDEX_BACKEND: %s", cfg.IndexBackend)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
