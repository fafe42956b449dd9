package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "BODY_LIMIT_BYTES", "BODY_LIMIT_MB", "STORE_DRIVER", "DB_PORT", "CURRENCY", "SEED_DEMO"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 4*1024*1024, cfg.BodyLimitBytes)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "INR", cfg.Currency)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.True(t, cfg.SeedDemo)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("BODY_LIMIT_BYTES", "1024")
	t.Setenv("STORE_DRIVER", "MySQL")
	t.Setenv("DB_PORT", "")
	t.Setenv("CURRENCY", "eur")
	t.Setenv("SEED_DEMO", "false")
	t.Setenv("RATE_LIMIT_MAX", "not-a-number")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 1024, cfg.BodyLimitBytes)
	assert.Equal(t, DriverMySQL, cfg.StoreDriver)
	assert.Equal(t, 3306, cfg.DBPort)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, 60, cfg.RateLimitMax)
	assert.False(t, cfg.SeedDemo)
}

func TestNewLoggerLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("nonsense").GetLevel())
}
