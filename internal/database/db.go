package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"uutisvahti/aggregator/internal/database/migrations"
)

// DB represents the database connection
type DB struct {
	*sqlx.DB
}

// NewDB opens the configured driver, tunes the pool and applies pending
// migrations unless the connection is read-only.
func NewDB(cfg *Config) (*DB, error) {
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = defaultMaxIdleConns
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = defaultMaxOpenConns
	}

	var (
		db  *sqlx.DB
		err error
	)
	switch cfg.Driver {
	case DriverSQLite:
		db, err = openSQLite(cfg)
	case DriverPostgres:
		db, err = sqlx.Open(DriverPostgres, cfg.DataSource)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.Driver == DriverSQLite {
		applyPragmas(db, cfg)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db (%s): %w", modeStr(cfg.ReadOnly), err)
	}

	if !cfg.ReadOnly && !cfg.SkipMigrations {
		log.Info().Str("driver", cfg.Driver).Msg("Running database migrations...")
		all, err := migrations.Load(cfg.Driver)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to load migrations: %w", err)
		}

		if err := migrations.Run(db, all); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info().Msg("Database migrations completed successfully")
	} else {
		log.Info().Msg("Skipping migrations (from config).")
	}

	log.Info().Str("driver", cfg.Driver).Str("mode", modeStr(cfg.ReadOnly)).Msg("Database connection successful")
	return &DB{db}, nil
}

func openSQLite(cfg *Config) (*sqlx.DB, error) {
	dir := filepath.Dir(cfg.DataSource)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for database: %w", err)
		}
	}

	// WAL mode allows concurrent reads while writing
	dsn := fmt.Sprintf("%s?_journal=WAL&_synchronous=NORMAL&_busy_timeout=%d",
		cfg.DataSource, cfg.BusyTimeoutMS)

	if cfg.ReadOnly {
		dsn += "&mode=ro"
		log.Info().Str("path", cfg.DataSource).Msg("Opening database in Read-Only mode (from config)")
	} else {
		log.Info().Str("path", cfg.DataSource).Msg("Opening database in Read-Write mode (from config)")
	}

	return sqlx.Open(DriverSQLite, dsn)
}

func applyPragmas(db *sqlx.DB, cfg *Config) {
	var pragmas []string
	if cfg.ReadOnly {
		pragmas = []string{
			fmt.Sprintf("PRAGMA cache_size = %d;", cfg.CacheSizeKB),
			"PRAGMA temp_store = MEMORY;",
			"PRAGMA query_only = ON;",
		}
	} else {
		pragmas = []string{
			fmt.Sprintf("PRAGMA cache_size = %d;", cfg.CacheSizeKB),
			"PRAGMA temp_store = MEMORY;",
			"PRAGMA foreign_keys = ON;",
		}
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			log.Warn().Err(err).Str("pragma", pragma).Str("mode", modeStr(cfg.ReadOnly)).Msg("Failed to set PRAGMA")
		}
	}
}

// RollbackMigrations reverts the last n applied migrations.
func (db *DB) RollbackMigrations(n int) error {
	all, err := migrations.Load(db.DriverName())
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	return migrations.Rollback(db.DB, all, n)
}

// Helper for logging
func modeStr(readOnly bool) string {
	if readOnly {
		return "read-only"
	}
	return "read-write"
}

// DeleteDB removes the database file if it exists
func DeleteDB(dbPath string) error {
	if _, err := os.Stat(dbPath); err == nil {
		return os.Remove(dbPath)
	}
	return nil
}
