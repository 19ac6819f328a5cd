package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/benvon/twin-insights/internal/database"
)

// Config holds application configuration
type Config struct {
	DatabaseURL     string
	ServerPort      string
	FrontendURL     string
	AIProvider      string
	OpenAIKey       string
	GeminiKey       string
	AIModel         string
	AIBaseURL       string
	AIMaxTokens     int
	EnableHSTS      bool
	RedisURL        string
	QueryRate       string
	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string

	SessionQuota   int
	SessionIdleTTL time.Duration

	ProfileLimit             int
	ProfileScanWindow        int
	ProfileRelevanceFields   string
	ProfileFallbackAnyActive bool

	OpenAPIPath string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),
		AIProvider:      strings.ToLower(getEnv("AI_PROVIDER", "openai")),
		OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
		GeminiKey:       getEnv("GEMINI_API_KEY", ""),
		AIModel:         getEnv("AI_MODEL", ""),
		AIBaseURL:       getEnv("AI_BASE_URL", ""),
		AIMaxTokens:     getEnvInt("AI_MAX_TOKENS", 1200),
		EnableHSTS:      getEnvBool("ENABLE_HSTS", false),
		RedisURL:        getEnv("REDIS_URL", ""),
		QueryRate:       getEnv("QUERY_RATE_LIMIT", "20-M"),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		SessionQuota:   getEnvInt("SESSION_QUOTA", 10),
		SessionIdleTTL: getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),

		ProfileLimit:             getEnvInt("PROFILE_LIMIT", database.DefaultProfileLimit),
		ProfileScanWindow:        getEnvInt("PROFILE_SCAN_WINDOW", database.DefaultProfileScanWindow),
		ProfileRelevanceFields:   getEnv("PROFILE_RELEVANCE_FIELDS", "eating_habits,health_wellness,purchase_behavior,lifestyle"),
		ProfileFallbackAnyActive: getEnvBool("PROFILE_FALLBACK_ANY_ACTIVE", false),

		OpenAPIPath: getEnv("OPENAPI_PATH", "api/openapi/openapi.yaml"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	switch cfg.AIProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER=openai")
		}
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER=gemini")
		}
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q (expected openai or gemini)", cfg.AIProvider)
	}

	if cfg.SessionQuota <= 0 {
		return nil, fmt.Errorf("SESSION_QUOTA must be positive")
	}
	if cfg.ProfileLimit <= 0 {
		return nil, fmt.Errorf("PROFILE_LIMIT must be positive")
	}

	return cfg, nil
}

// LoadDatabaseURL reads only DATABASE_URL, for tools that never call the completion service
func LoadDatabaseURL() (string, error) {
	_ = godotenv.Load()
	url := getEnv("DATABASE_URL", "")
	if url == "" {
		return "", fmt.Errorf("DATABASE_URL is required")
	}
	return url, nil
}

// APIKey returns the key for the configured provider
func (c *Config) APIKey() string {
	if c.AIProvider == "gemini" {
		return c.GeminiKey
	}
	return c.OpenAIKey
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
