// Package database handles database connections and migrations.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"yatube/internal/config"
	"yatube/internal/middleware"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// DB is the global database connection instance.
	DB *gorm.DB
	// ReadDB is the read replica, nil when none is configured.
	ReadDB *gorm.DB
)

// GetReadDB returns the read replica, or nil.
func GetReadDB() *gorm.DB {
	return ReadDB
}

// CustomGormLogger integrates GORM with slog
type CustomGormLogger struct {
	logger *slog.Logger
	Config logger.Config
}

// NewGormLogger returns a slog-backed GORM logger at Warn level.
func NewGormLogger() *CustomGormLogger {
	return &CustomGormLogger{
		logger: middleware.Logger,
		Config: logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	}
}

// LogMode sets the logging level and returns a new interface instance.
func (l *CustomGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newlogger := *l
	newlogger.Config.LogLevel = level
	return &newlogger
}

// Info logs an informational message with context.
func (l *CustomGormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Warn logs a warning message with context.
func (l *CustomGormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *CustomGormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Trace logs trace-level information including SQL queries and execution time.
func (l *CustomGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Config.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && l.Config.LogLevel >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		l.logger.ErrorContext(ctx, "GORM query error",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
	case elapsed > l.Config.SlowThreshold && l.Config.SlowThreshold != 0 && l.Config.LogLevel >= logger.Warn:
		l.logger.WarnContext(ctx, "GORM slow query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	case l.Config.LogLevel >= logger.Info:
		l.logger.InfoContext(ctx, "GORM query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	}
}

func dsn(host, port, user, password, name, sslMode string) string {
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, name, sslMode,
	)
}

// Open opens a GORM handle on any dialector with the application's logger,
// pool settings and query metrics installed.
func Open(dialector gorm.Dialector, cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := configurePool(db, cfg); err != nil {
		return nil, err
	}
	if err := RegisterMetricsCallbacks(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Connect opens the primary PostgreSQL connection and stores it in DB.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(postgres.Open(dsn(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)), cfg)
	if err != nil {
		return nil, err
	}

	middleware.Logger.Info("Database connected successfully",
		slog.String("host", cfg.DBHost), slog.String("database", cfg.DBName))

	DB = db
	return DB, nil
}

// ConnectRead opens the read replica and stores it in ReadDB. It is a no-op
// when no replica is configured.
func ConnectRead(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DBReadHost == "" {
		return nil, nil
	}
	db, err := Open(postgres.Open(dsn(cfg.DBReadHost, cfg.DBReadPort, cfg.DBReadUser, cfg.DBReadPassword, cfg.DBName, cfg.DBSSLMode)), cfg)
	if err != nil {
		return nil, fmt.Errorf("read replica: %w", err)
	}
	middleware.Logger.Info("Read replica connected", slog.String("host", cfg.DBReadHost))
	ReadDB = db
	return db, nil
}

func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql.DB: %w", err)
	}

	maxOpen := cfg.DBMaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.DBMaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime())
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
