// Package repo implements the persistence layer of the local identity
// store, backed by GORM and a pure-Go SQLite driver. This file contains
// database bootstrapping helpers and schema migrations.
package repo

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-auth-service/internal/domain"
)

// Sentinel errors returned by repository helpers.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

type openConfig struct {
	tracing bool
	silent  bool
}

// OpenOption customizes OpenSQLite.
type OpenOption func(*openConfig)

// WithTracing registers the GORM OpenTelemetry plugin so every query
// produces a span under the request's trace.
func WithTracing() OpenOption { return func(c *openConfig) { c.tracing = true } }

// WithSilentLogger disables GORM's own query logging.
func WithSilentLogger() OpenOption { return func(c *openConfig) { c.silent = true } }

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
// The special path ":memory:" opens a private in-memory database.
func OpenSQLite(path string, opts ...OpenOption) (*gorm.DB, error) {
	var cfg openConfig
	for _, o := range opts {
		o(&cfg)
	}

	// Fail early if the parent directory does not exist.
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	gcfg := &gorm.Config{TranslateError: true}
	if cfg.silent {
		gcfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), gcfg)
	if err != nil {
		return nil, err
	}

	if cfg.tracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, err
		}
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	if sqlDB, err := db.DB(); err == nil {
		if path == ":memory:" {
			// Every connection gets its own empty in-memory database, so
			// pin exactly one and never recycle it.
			sqlDB.SetMaxOpenConns(1)
			sqlDB.SetMaxIdleConns(1)
			sqlDB.SetConnMaxIdleTime(0)
			sqlDB.SetConnMaxLifetime(0)
		} else {
			sqlDB.SetMaxOpenConns(10)
			sqlDB.SetMaxIdleConns(10)
			sqlDB.SetConnMaxIdleTime(5 * time.Minute)
			sqlDB.SetConnMaxLifetime(30 * time.Minute)
		}
	}

	return db, nil
}

// AutoMigrate creates or updates the identity store schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.UserRecord{})
}
