// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cache backends selectable through CACHE_BACKEND.
const (
	CacheBackendRedis  = "redis"
	CacheBackendBadger = "badger"
	CacheBackendNone   = "none"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	Port           string `mapstructure:"PORT"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	DBReadHost     string `mapstructure:"DB_READ_HOST"`
	DBReadPort     string `mapstructure:"DB_READ_PORT"`
	DBReadUser     string `mapstructure:"DB_READ_USER"`
	DBReadPassword string `mapstructure:"DB_READ_PASSWORD"`

	DBMaxOpenConns           int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns           int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	DBSchemaMode             string `mapstructure:"DB_SCHEMA_MODE"`
	DBAutoMigrateDestructive bool   `mapstructure:"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"`

	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	Env            string `mapstructure:"APP_ENV"`
	CookieSecure   bool   `mapstructure:"COOKIE_SECURE"`

	PageSize             int    `mapstructure:"PAGE_SIZE"`
	IndexCacheTTLSeconds int    `mapstructure:"INDEX_CACHE_TTL_SECONDS"`
	CacheBackend         string `mapstructure:"CACHE_BACKEND"`
	BadgerDir            string `mapstructure:"BADGER_DIR"`

	MediaRoot            string `mapstructure:"MEDIA_ROOT"`
	ImageMaxUploadSizeMB int    `mapstructure:"MEDIA_MAX_UPLOAD_MB"`
	ImageMaxPixels       int    `mapstructure:"MEDIA_MAX_PIXELS"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`

	DevBootstrapRoot bool   `mapstructure:"DEV_BOOTSTRAP_ROOT"`
	DevRootUsername  string `mapstructure:"DEV_ROOT_USERNAME"`
	DevRootEmail     string `mapstructure:"DEV_ROOT_EMAIL"`
	DevRootPassword  string `mapstructure:"DEV_ROOT_PASSWORD"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional; profile files are not.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8000")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "yatube")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_READ_HOST", "")
	viper.SetDefault("DB_READ_PORT", "5432")
	viper.SetDefault("DB_READ_USER", "user")
	viper.SetDefault("DB_READ_PASSWORD", "password")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")
	viper.SetDefault("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE", false)
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:8000,http://127.0.0.1:8000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("COOKIE_SECURE", false)
	viper.SetDefault("PAGE_SIZE", 10)
	viper.SetDefault("INDEX_CACHE_TTL_SECONDS", 20)
	viper.SetDefault("CACHE_BACKEND", CacheBackendRedis)
	viper.SetDefault("BADGER_DIR", "./data/pagecache")
	viper.SetDefault("MEDIA_ROOT", "./media")
	viper.SetDefault("MEDIA_MAX_UPLOAD_MB", 5)
	viper.SetDefault("MEDIA_MAX_PIXELS", 40_000_000)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
	viper.SetDefault("DEV_BOOTSTRAP_ROOT", false)
	viper.SetDefault("DEV_ROOT_USERNAME", "root")
	viper.SetDefault("DEV_ROOT_EMAIL", "root@yatube.local")
	viper.SetDefault("DEV_ROOT_PASSWORD", "")
}

func (c *Config) normalize() {
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.CacheBackend = strings.ToLower(strings.TrimSpace(c.CacheBackend))
	c.DBSchemaMode = strings.ToLower(strings.TrimSpace(c.DBSchemaMode))
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.PageSize < 0 {
		return errors.New("PAGE_SIZE must not be negative")
	}
	if c.IndexCacheTTLSeconds < 0 {
		return errors.New("INDEX_CACHE_TTL_SECONDS must not be negative")
	}
	if c.ImageMaxUploadSizeMB < 0 {
		return errors.New("MEDIA_MAX_UPLOAD_MB must not be negative")
	}
	if c.ImageMaxPixels < 0 {
		return errors.New("MEDIA_MAX_PIXELS must not be negative")
	}
	switch c.CacheBackend {
	case "", CacheBackendRedis, CacheBackendBadger, CacheBackendNone:
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of redis, badger, none (got %q)", c.CacheBackend)
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable TLS in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}

// IsProduction reports whether the production profile is active.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// EffectivePageSize is the feed page size with the default applied.
func (c *Config) EffectivePageSize() int {
	if c.PageSize <= 0 {
		return 10
	}
	return c.PageSize
}

// IndexCacheTTL is how long a rendered home page may be served from cache.
func (c *Config) IndexCacheTTL() time.Duration {
	return time.Duration(c.IndexCacheTTLSeconds) * time.Second
}

// MaxUploadBytes is the largest accepted image upload.
func (c *Config) MaxUploadBytes() int {
	mb := c.ImageMaxUploadSizeMB
	if mb <= 0 {
		mb = 5
	}
	return mb << 20
}

// ConnMaxLifetime returns the pool connection lifetime.
func (c *Config) ConnMaxLifetime() time.Duration {
	if c.DBConnMaxLifetimeMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.DBConnMaxLifetimeMinutes) * time.Minute
}
