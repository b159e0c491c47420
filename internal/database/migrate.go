package database

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"

	"yatube/internal/middleware"
)

// Migration is one embedded SQL migration with its rollback script.
type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

//go:embed migrations/*.sql
var migrationFS embed.FS

var migrations []Migration

func init() {
	var err error
	if migrations, err = loadMigrations(migrationFS, "migrations"); err != nil {
		middleware.Logger.Error("embedded migrations are unusable", slog.String("error", err.Error()))
	}
}

// loadMigrations reads NNNNNN_name.up.sql files from dir, each paired with
// NNNNNN_name.down.sql. Files that do not follow the naming are skipped.
func loadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var out []Migration
	seen := make(map[int]string)
	for _, entry := range entries {
		base, ok := strings.CutSuffix(entry.Name(), ".up.sql")
		if entry.IsDir() || !ok {
			continue
		}
		version, name, ok := parseMigrationName(base)
		if !ok {
			middleware.Logger.Warn("skipping migration file", slog.String("file", entry.Name()))
			continue
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %06d used by %s and %s", version, prev, base)
		}
		seen[version] = base

		up, err := fs.ReadFile(fsys, path.Join(dir, base+".up.sql"))
		if err != nil {
			return nil, err
		}
		down, err := fs.ReadFile(fsys, path.Join(dir, base+".down.sql"))
		if err != nil {
			return nil, fmt.Errorf("migration %s has no rollback: %w", base, err)
		}
		out = append(out, Migration{Version: version, Name: name, UpScript: string(up), DownScript: string(down)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func parseMigrationName(base string) (int, string, bool) {
	num, name, ok := strings.Cut(base, "_")
	if !ok || name == "" {
		return 0, "", false
	}
	version, err := strconv.Atoi(num)
	if err != nil || version <= 0 {
		return 0, "", false
	}
	return version, name, true
}

// GetMigrations returns the embedded migrations in version order.
func GetMigrations() []Migration {
	return migrations
}

// FindMigration looks up an embedded migration by version.
func FindMigration(version int) (Migration, bool) {
	for _, m := range migrations {
		if m.Version == version {
			return m, true
		}
	}
	return Migration{}, false
}
