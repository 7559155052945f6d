package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port           int
	AllowedOrigins []string
	GinMode        string
	LogLevel       string

	FetchTimeoutMs int
	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int

	RenderEnabled  bool
	RenderSettleMs int
	ChromeBin      string

	SourcesFile   string
	CSVOutputPath string

	ArchiveEnabled   bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		Port:           getEnvInt("PORT", 10000),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		GinMode:        getEnv("GIN_MODE", "release"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		FetchTimeoutMs: clamp(getEnvInt("FETCH_TIMEOUT_MS", 15000), 10000, 15000),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 4),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 250),
		MaxRetries:     getEnvInt("MAX_RETRIES", 2),

		RenderEnabled:  getEnvBool("RENDER_ENABLED", false),
		RenderSettleMs: getEnvInt("RENDER_SETTLE_MS", 2000),
		ChromeBin:      getEnv("CHROME_BIN", ""),

		SourcesFile:   getEnv("SOURCES_FILE", ""),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/raw_listings.csv"),

		ArchiveEnabled:   getEnvBool("ARCHIVE_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "immosearch"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "immosearch"),
		PostgresDB:       getEnv("POSTGRES_DB", "immosearch"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
		log.Printf("[config] Invalid integer for %s: %q, using %d", key, val, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
		log.Printf("[config] Invalid boolean for %s: %q, using %t", key, val, fallback)
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// clamp keeps per-fetch timeouts inside the supported window.
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
