package database

import (
	"context"
	"fmt"
	"log/slog"

	"yatube/internal/config"
	"yatube/internal/middleware"

	"gorm.io/gorm"
)

// DB_SCHEMA_MODE values.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan says how ApplySchema brings the blog tables up to date.
type SchemaPlan struct {
	Mode        string
	Migrations  bool // embedded SQL migrations
	AutoMigrate bool // gorm AutoMigrate over PersistentModels
}

// PlanSchema resolves DB_SCHEMA_MODE for the current environment. Hybrid
// only auto-migrates outside production, and auto mode in production needs
// DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{Mode: cfg.DBSchemaMode}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}

	switch plan.Mode {
	case SchemaModeSQL:
		plan.Migrations = true
	case SchemaModeHybrid:
		plan.Migrations = true
		plan.AutoMigrate = !cfg.IsProduction()
	case SchemaModeAuto:
		if cfg.IsProduction() && !cfg.DBAutoMigrateDestructive {
			return plan, fmt.Errorf("DB_SCHEMA_MODE=auto in %q requires DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.AutoMigrate = true
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}
	return plan, nil
}

// ApplySchema runs the steps PlanSchema selects.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.Migrations {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.AutoMigrate {
		middleware.Logger.InfoContext(ctx, "auto-migrating blog tables",
			slog.String("mode", plan.Mode), slog.String("env", cfg.Env))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// SchemaStatus is a plan together with the migration log.
type SchemaStatus struct {
	SchemaPlan
	Applied []int
	Pending []Migration
}

// InspectSchema reports the plan and pending migrations without changing anything.
func InspectSchema(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan}
	if !plan.Migrations {
		return status, nil
	}

	if status.Applied, err = NewMigrationStore(db).GetAppliedMigrations(ctx); err != nil {
		return nil, err
	}
	status.Pending = pendingMigrations(status.Applied, migrations)
	return status, nil
}

func pendingMigrations(applied []int, registered []Migration) []Migration {
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}
	var pending []Migration
	for _, m := range registered {
		if !done[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending
}
