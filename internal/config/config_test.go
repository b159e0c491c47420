package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                      "development",
		DBSSLMode:                "disable",
		JWTSecret:                "secure-secret-at-least-32-chars-long",
		DBPassword:               "secure-password",
		Port:                     "8080",
		ImageMaxUploadSizeMB:     10,
		DBConnMaxLifetimeMinutes: 1,
		RedisURL:                 "redis://localhost:6379",
		PageSize:                 10,
		IndexCacheTTLSeconds:     20,
		CacheBackend:             CacheBackendRedis,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with empty SSL mode", "prod", "", true},
		{"Prod with disable SSL mode", "prod", "disable", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateRejectsDefaultSecretInProduction(t *testing.T) {
	c := validConfig()
	c.Env = "production"
	c.DBSSLMode = "require"
	c.JWTSecret = defaultJWTSecret
	assert.Error(t, c.Validate())
}

func TestConfig_ValidateCacheBackend(t *testing.T) {
	for _, backend := range []string{"", CacheBackendRedis, CacheBackendBadger, CacheBackendNone} {
		c := validConfig()
		c.CacheBackend = backend
		assert.NoError(t, c.Validate(), backend)
	}

	c := validConfig()
	c.CacheBackend = "memcached"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.ImageMaxPixels = -1
	assert.Error(t, c.Validate())
}

func TestConfig_Durations(t *testing.T) {
	c := validConfig()
	assert.Equal(t, 20*time.Second, c.IndexCacheTTL())
	assert.Equal(t, time.Minute, c.ConnMaxLifetime())
	assert.Equal(t, 10<<20, c.MaxUploadBytes())

	c.PageSize = 0
	assert.Equal(t, 10, c.EffectivePageSize())
}

func TestLoadConfig_DefaultsAndNormalization(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("CACHE_BACKEND", "Badger")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, CacheBackendBadger, c.CacheBackend)
	assert.Equal(t, 10, c.PageSize)
	assert.Equal(t, 20, c.IndexCacheTTLSeconds)
	assert.Equal(t, 25, c.DBMaxOpenConns)
	assert.Equal(t, 40_000_000, c.ImageMaxPixels)
}

func TestLoadConfig_EnvOverridesPageSize(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "test")
	t.Setenv("PAGE_SIZE", "5")
	t.Setenv("INDEX_CACHE_TTL_SECONDS", "0")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, c.PageSize)
	assert.Equal(t, time.Duration(0), c.IndexCacheTTL())
}
