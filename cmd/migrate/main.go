// Command migrate applies, inspects and rolls back the Yatube schema.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"yatube/internal/config"
	"yatube/internal/database"

	"gorm.io/gorm"
)

const usageText = "usage: migrate <up|auto|status|list|down> [version]"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return fmt.Errorf(usageText)
	}
	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))

	// list only reads the embedded files.
	if cmd == "list" {
		for _, m := range database.GetMigrations() {
			fmt.Println(m.String())
		}
		return nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	return dispatch(context.Background(), cmd, db, cfg)
}

func dispatch(ctx context.Context, cmd string, db *gorm.DB, cfg *config.Config) error {
	switch cmd {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Println("sql migrations applied")
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		log.Println("automigrations applied")
	case "status":
		status, err := database.InspectSchema(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		log.Printf("mode=%s env=%s run_sql=%t run_auto=%t applied=%v pending=%d",
			status.Mode, cfg.Env, status.Migrations, status.AutoMigrate,
			status.Applied, len(status.Pending))
		for _, m := range status.Pending {
			log.Printf("pending: %s", m.String())
		}
	case "down":
		if flag.NArg() < 2 {
			return fmt.Errorf("usage: migrate down <version>")
		}
		version, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", flag.Arg(1), err)
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Printf("rolled back migration %d", version)
	default:
		return fmt.Errorf(usageText)
	}
	return nil
}
