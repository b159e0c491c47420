package repository

import (
	"errors"
	"strings"

	"yatube/internal/database"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// IsUniqueConstraintError recognizes unique violations from PostgreSQL
// (SQLSTATE 23505), from GORM's error translation and from SQLite messages.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
