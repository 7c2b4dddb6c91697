package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("AI_TIMEOUT", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg := Load()

	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, 30*time.Second, cfg.AITimeout)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/solvo")
	t.Setenv("AUTO_END_WEEK", "true")
	t.Setenv("END_WEEK_CHECK_INTERVAL", "15m")
	t.Setenv("TIMEZONE", "Europe/Madrid")

	cfg := Load()

	assert.Equal(t, BackendPostgres, cfg.StorageBackend)
	assert.True(t, cfg.AutoEndWeek)
	assert.Equal(t, 15*time.Minute, cfg.EndWeekCheckInterval)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			StorageBackend:     BackendMemory,
			StoragePrefix:      "solvo",
			MaxBodyBytes:       4096,
			RateLimitPerMinute: 10,
			AITimeout:          time.Second,
			Timezone:           "UTC",
		}
	}
	cases := map[string]func(*Config){
		"unknown backend":      func(c *Config) { c.StorageBackend = "sqlite" },
		"postgres without url": func(c *Config) { c.StorageBackend = BackendPostgres },
		"redis without addr":   func(c *Config) { c.StorageBackend = BackendRedis },
		"empty prefix":         func(c *Config) { c.StoragePrefix = " " },
		"production secrets":   func(c *Config) { c.Environment = "production" },
		"tiny body limit":      func(c *Config) { c.MaxBodyBytes = 10 },
		"zero rate limit":      func(c *Config) { c.RateLimitPerMinute = 0 },
		"fast auto end week":   func(c *Config) { c.AutoEndWeek = true; c.EndWeekCheckInterval = time.Second },
		"bad timezone":         func(c *Config) { c.Timezone = "Mars/Olympus" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, valid().Validate())
}
