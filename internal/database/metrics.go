package database

import (
	"time"

	"yatube/internal/observability"

	"gorm.io/gorm"
)

const startKey = "yatube:query_start"

// RegisterMetricsCallbacks records every query's latency in
// observability.DatabaseQueryLatency, labelled by operation and table.
func RegisterMetricsCallbacks(db *gorm.DB) error {
	type hook struct {
		op       string
		register func(before, after func(*gorm.DB)) error
	}

	cb := db.Callback()
	hooks := []hook{
		{"create", func(b, a func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").Register("metrics:before_create", b); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register("metrics:after_create", a)
		}},
		{"query", func(b, a func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").Register("metrics:before_query", b); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register("metrics:after_query", a)
		}},
		{"update", func(b, a func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").Register("metrics:before_update", b); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register("metrics:after_update", a)
		}},
		{"delete", func(b, a func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").Register("metrics:before_delete", b); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register("metrics:after_delete", a)
		}},
		{"raw", func(b, a func(*gorm.DB)) error {
			if err := cb.Raw().Before("gorm:raw").Register("metrics:before_raw", b); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Register("metrics:after_raw", a)
		}},
	}

	for _, h := range hooks {
		op := h.op
		before := func(tx *gorm.DB) {
			tx.InstanceSet(startKey, time.Now())
		}
		after := func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			observability.NewDatabaseMetrics(table).ObserveQuery(op, start)
		}
		if err := h.register(before, after); err != nil {
			return err
		}
	}
	return nil
}
