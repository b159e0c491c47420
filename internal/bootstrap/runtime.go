// Package bootstrap wires the process-wide runtime: database, schema, redis
// and the optional development data every binary may need.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedBuiltIns upserts the built-in groups after the schema is ready.
	SeedBuiltIns bool
	// SkipSchema leaves the schema alone; cmd/migrate manages it itself.
	SkipSchema bool
}

// InitRuntime connects to the database and redis, applies the schema and
// optionally seeds built-in data. A nil redis client means redis is
// unavailable and callers fall back to uncached behavior.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	if _, err := database.ConnectRead(cfg); err != nil {
		middleware.Logger.Warn("read replica unavailable, using primary", slog.String("error", err.Error()))
	}

	if !opts.SkipSchema {
		if err := database.ApplySchema(context.Background(), db, cfg); err != nil {
			return nil, nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevRootAdmin(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}

	if opts.SeedBuiltIns {
		if _, err := seed.Groups(db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed built-in groups: %w", err)
		}
	}

	return db, r, nil
}

// ensureDevRootAdmin creates or promotes the development superuser. It only
// acts in development with DEV_BOOTSTRAP_ROOT set.
func ensureDevRootAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	username := strings.TrimSpace(cfg.DevRootUsername)
	if username == "" {
		username = "root"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevRootEmail))
	if email == "" {
		email = "root@yatube.local"
	}
	password := cfg.DevRootPassword
	if password == "" {
		return fmt.Errorf("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var root models.User
		findErr := tx.Where("username = ?", username).First(&root).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			root = models.User{
				Username: username,
				Email:    email,
				Password: string(hashedPassword),
				IsAdmin:  true,
			}
			return tx.Create(&root).Error
		case findErr != nil:
			return findErr
		case root.IsAdmin:
			return nil
		default:
			return tx.Model(&root).Update("is_admin", true).Error
		}
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("development root admin ensured",
		slog.String("username", username), slog.String("email", email))
	return nil
}
