package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

type Config struct {
	AppEnv         string
	LogLevel       string
	Port           string
	AllowedOrigins []string
	RequestTimeout time.Duration

	DatabaseURL  string
	SQLitePath   string
	SeedDemoData bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	IntelligenceDayStartHour int
	SalesDayStartHour        int

	NarrativeTTL  time.Duration
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	OpenAITimeout time.Duration
}

func Load() Config {
	return Config{
		AppEnv:         getEnv("APP_ENV", "production"),
		LogLevel:       getEnv("LOG_LEVEL", ""),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://127.0.0.1:3000")),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),

		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SQLitePath:   getEnv("SQLITE_PATH", ""),
		SeedDemoData: getEnvBool("SEED_DEMO_DATA", true),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		IntelligenceDayStartHour: getEnvInt("INTELLIGENCE_DAY_START_HOUR", 7),
		SalesDayStartHour:        getEnvInt("SALES_DAY_START_HOUR", 8),

		NarrativeTTL:  getEnvDuration("NARRATIVE_TTL", 30*time.Minute),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAITimeout: getEnvDuration("OPENAI_TIMEOUT", 20*time.Second),
	}
}

// Validate rejects settings no report could run with. It is called before
// any data access.
func (c Config) Validate() error {
	for name, hour := range map[string]int{
		"INTELLIGENCE_DAY_START_HOUR": c.IntelligenceDayStartHour,
		"SALES_DAY_START_HOUR":        c.SalesDayStartHour,
	} {
		if hour < 0 || hour > 23 {
			return fmt.Errorf("%w: %s must be within 0..23, got %d", domain.ErrInvalidConfig, name, hour)
		}
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: REQUEST_TIMEOUT must be positive", domain.ErrInvalidConfig)
	}
	if c.NarrativeTTL <= 0 {
		return fmt.Errorf("%w: NARRATIVE_TTL must be positive", domain.ErrInvalidConfig)
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("%w: REDIS_DB must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
