// Package config loads service configuration from environment variables,
// with .env support for local development.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-derived setting the service needs to boot.
type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Server
	Port    string
	GinMode string

	// Admin auth — address allowlist, bearer token per address
	AdminAllowlist []string

	// Redis (blob store + event bus); empty falls back to in-memory
	RedisAddr string

	// Market snapshot fetcher
	PriceFeedURL        string
	PriceFeedAPIKey     string
	SnapshotCacheTTL    time.Duration
	SnapshotInflightTTL time.Duration
	RateLimitPerMinute  int
	MonthlyCreditCap    int

	// Strategy compiler LLM path (optional)
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	LLMParseEnabled bool

	// Match timing
	MatchDuration time.Duration
	TickMinDelay  time.Duration
	TickJitter    time.Duration
}

// Load reads configuration from the environment, applying the same
// load-dotenv-then-getenv-with-default pattern used throughout this stack.
func Load() (*Config, error) {
	godotenv.Load()

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "tokenarena"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "release"),

		AdminAllowlist: splitCSV(getEnv("ADMIN_ALLOWLIST", "")),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		PriceFeedURL:        getEnv("PRICE_FEED_URL", "https://api.dexscreener.com/latest/dex/pairs"),
		PriceFeedAPIKey:     getEnv("PRICE_FEED_API_KEY", ""),
		SnapshotCacheTTL:    getEnvDuration("SNAPSHOT_CACHE_TTL", 90*time.Second),
		SnapshotInflightTTL: getEnvDuration("SNAPSHOT_INFLIGHT_TTL", 5*time.Second),
		RateLimitPerMinute:  getEnvInt("SNAPSHOT_RATE_LIMIT_PER_MIN", 450),
		MonthlyCreditCap:    getEnvInt("SNAPSHOT_MONTHLY_CREDIT_CAP", 480000),

		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		LLMParseEnabled: getEnv("LLM_PARSE_ENABLED", "false") == "true",

		MatchDuration: getEnvDuration("MATCH_DURATION", 24*time.Hour),
		TickMinDelay:  getEnvDuration("TICK_MIN_DELAY", 60*time.Second),
		TickJitter:    getEnvDuration("TICK_JITTER", 120*time.Second),
	}, nil
}

// DBDSN builds the Postgres DSN consumed by gorm.io/driver/postgres.
func (c *Config) DBDSN() string {
	return "host=" + c.DBHost + " port=" + c.DBPort + " user=" + c.DBUser +
		" dbname=" + c.DBName + " password=" + c.DBPassword + " sslmode=" + c.DBSSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		n := 0
		for _, r := range value {
			if r < '0' || r > '9' {
				return defaultValue
			}
			n = n*10 + int(r-'0')
		}
		return n
	}
	return defaultValue
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
