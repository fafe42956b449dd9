package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds everything main needs to wire the service.
type Config struct {
	Port            string
	BodyLimitBytes  int
	AllowedOrigins  string
	RateLimitMax    int
	RateLimitWindow time.Duration

	StoreDriver string
	DBHost      string
	DBPort      int
	DBUser      string
	DBPassword  string
	DBName      string
	SeedDemo    bool

	RedisAddr      string
	IdempotencyTTL time.Duration

	GCSBucket          string
	GCSCredentialsJSON string
	ShopName           string
	Currency           string
	PhoneRegion        string

	LogLevel string
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	// A missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	// Fiber default BodyLimit is 4MB; BODY_LIMIT_BYTES wins over BODY_LIMIT_MB.
	bodyLimit := envInt("BODY_LIMIT_BYTES", 0)
	if bodyLimit <= 0 {
		bodyLimit = envInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}

	driver := strings.ToLower(envString("STORE_DRIVER", DriverMemory))
	defaultPort := 5432
	if driver == DriverMySQL {
		defaultPort = 3306
	}

	return Config{
		Port:            envString("PORT", "8080"),
		BodyLimitBytes:  bodyLimit,
		AllowedOrigins:  envString("ALLOWED_ORIGINS", "*"),
		RateLimitMax:    envInt("RATE_LIMIT_MAX", 60),
		RateLimitWindow: time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,

		StoreDriver: driver,
		DBHost:      envString("DB_HOST", "db"),
		DBPort:      envInt("DB_PORT", defaultPort),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		SeedDemo:    envBool("SEED_DEMO", true),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		IdempotencyTTL: time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", 24)) * time.Hour,

		GCSBucket:          os.Getenv("GCS_BUCKET"),
		GCSCredentialsJSON: os.Getenv("GCS_CREDENTIALS_JSON"),
		ShopName:           envString("SHOP_NAME", "Invoice Desk"),
		Currency:           strings.ToUpper(envString("CURRENCY", "INR")),
		PhoneRegion:        strings.ToUpper(envString("PHONE_REGION", "IN")),

		LogLevel: envString("LOG_LEVEL", "info"),
	}
}

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}
