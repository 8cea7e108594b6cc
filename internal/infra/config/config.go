package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env  string
	Port string

	// OTelLogsEnabled routes logs through the otelslog bridge in addition
	// to stdout.
	OTelLogsEnabled bool

	DB        DBConfig
	Provider  ProviderConfig
	Retrieval RetrievalConfig
	Chat      ChatConfig
	Session   SessionConfig
	Ingest    IngestConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	MaxConns int
	MinConns int
}

// DSN renders the pgx connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", c.User, c.Password, c.Host, c.Port, c.Name)
}

type ProviderConfig struct {
	BaseURL             string
	APIKey              string
	EmbeddingModel      string
	ChatModel           string
	EmbedTimeoutSecs    int
	ChatTimeoutSecs     int
	EmbedRequestsPerSec float64
}

type RetrievalConfig struct {
	TopK            int
	GlobalMinScore  float64
	SHSMinScore     float64
	CampusMinScore  float64
	MaxContextChars int
}

type ChatConfig struct {
	CampusName  string
	ContactLine string
	MaxTokens   int
	CacheSize   int
	CacheTTL    time.Duration
}

type SessionConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
	SummaryMax    int
	SummaryTarget int
}

type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

func Load() *Config {
	return &Config{
		Env:             getEnv("ENV", "development"),
		Port:            getEnv("PORT", "9020"),
		OTelLogsEnabled: getEnvBool("OTEL_LOGS_ENABLED", false),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "assist-db"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "assist_user"),
			Password: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "assist_password"),
			Name:     getEnv("DB_NAME", "assist_db"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
			MinConns: getEnvInt("DB_MIN_CONNS", 2),
		},
		Provider: ProviderConfig{
			BaseURL:             getEnv("PROVIDER_URL", "http://model-gateway:8000"),
			APIKey:              getSecret("PROVIDER_API_KEY", "PROVIDER_API_KEY_FILE", ""),
			EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			ChatModel:           getEnv("CHAT_MODEL", "gpt-4o-mini"),
			EmbedTimeoutSecs:    getEnvInt("EMBED_TIMEOUT_SECONDS", 30),
			ChatTimeoutSecs:     getEnvInt("CHAT_TIMEOUT_SECONDS", 120),
			EmbedRequestsPerSec: getEnvFloat("EMBED_REQUESTS_PER_SECOND", 5),
		},
		Retrieval: RetrievalConfig{
			TopK:            getEnvInt("RETRIEVAL_TOP_K", 5),
			GlobalMinScore:  getEnvFloat("RETRIEVAL_GLOBAL_MIN_SCORE", 0.45),
			SHSMinScore:     getEnvFloat("RETRIEVAL_SHS_MIN_SCORE", 0.45),
			CampusMinScore:  getEnvFloat("RETRIEVAL_CAMPUS_MIN_SCORE", 0),
			MaxContextChars: getEnvInt("RETRIEVAL_MAX_CONTEXT_CHARS", 6000),
		},
		Chat: ChatConfig{
			CampusName:  getEnv("CAMPUS_NAME", "PUP Lopez"),
			ContactLine: getEnv("CAMPUS_CONTACT_LINE", "visit the registrar's office or the official Facebook page"),
			MaxTokens:   getEnvInt("CHAT_MAX_TOKENS", 768),
			CacheSize:   getEnvInt("CHAT_CACHE_SIZE", 256),
			CacheTTL:    getEnvDuration("CHAT_CACHE_TTL", 10*time.Minute),
		},
		Session: SessionConfig{
			IdleTTL:       getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
			SummaryMax:    getEnvInt("SESSION_SUMMARY_MAX", 1200),
			SummaryTarget: getEnvInt("SESSION_SUMMARY_TARGET", 800),
		},
		Ingest: IngestConfig{
			ChunkSize:    getEnvInt("INGEST_CHUNK_SIZE", 1200),
			ChunkOverlap: getEnvInt("INGEST_CHUNK_OVERLAP", 200),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
