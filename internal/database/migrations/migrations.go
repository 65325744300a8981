package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// Migration represents a database migration
type Migration struct {
	Version int
	Up      string
	Down    string
}

// dirFor maps a driver name to its migration directory.
func dirFor(driver string) (string, error) {
	switch driver {
	case "sqlite3":
		return "sqlite", nil
	case "postgres":
		return "postgres", nil
	default:
		return "", fmt.Errorf("no migrations for driver %q", driver)
	}
}

// Load returns the embedded migrations for driver sorted by version.
func Load(driver string) ([]Migration, error) {
	dir, err := dirFor(driver)
	if err != nil {
		return nil, err
	}
	return LoadFS(files, dir)
}

// LoadFS reads NNN_name.up.sql / NNN_name.down.sql pairs from dir in fsys.
func LoadFS(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	// Group files by version
	versionFiles := make(map[int]struct {
		up   string
		down string
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}

		var version int
		var direction string
		if _, err := fmt.Sscanf(name, "%d_%s", &version, &direction); err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Skipping invalid migration file")
			continue
		}

		content, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		v := versionFiles[version]
		if strings.HasSuffix(direction, ".up.sql") {
			v.up = string(content)
		} else if strings.HasSuffix(direction, ".down.sql") {
			v.down = string(content)
		}
		versionFiles[version] = v
	}

	migrations := make([]Migration, 0, len(versionFiles))
	for version, f := range versionFiles {
		migrations = append(migrations, Migration{
			Version: version,
			Up:      f.up,
			Down:    f.down,
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	log.Debug().
		Int("count", len(migrations)).
		Str("dir", dir).
		Msg("Loaded migrations")

	return migrations, nil
}

// applied returns the set of recorded migration versions.
func applied(db *sqlx.DB) (map[int]bool, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var versions []int
	if err := db.Select(&versions, "SELECT version FROM schema_migrations ORDER BY version"); err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}

	out := make(map[int]bool, len(versions))
	for _, v := range versions {
		out[v] = true
	}
	return out, nil
}

// Run executes all pending migrations, each in its own transaction.
func Run(db *sqlx.DB, migrations []Migration) error {
	done, err := applied(db)
	if err != nil {
		return err
	}

	record := db.Rebind("INSERT INTO schema_migrations (version) VALUES (?)")
	for _, migration := range migrations {
		if done[migration.Version] {
			log.Debug().
				Int("version", migration.Version).
				Msg("Migration already applied, skipping")
			continue
		}

		log.Info().
			Int("version", migration.Version).
			Msg("Running migration")

		tx, err := db.Beginx()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if _, err := tx.Exec(migration.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec(record, migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		log.Info().
			Int("version", migration.Version).
			Msg("Migration completed successfully")
	}

	return nil
}

// Rollback rolls back the last n applied migrations.
func Rollback(db *sqlx.DB, migrations []Migration, n int) error {
	var versions []int
	query := db.Rebind("SELECT version FROM schema_migrations ORDER BY version DESC LIMIT ?")
	if err := db.Select(&versions, query, n); err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}

	byVersion := make(map[int]Migration, len(migrations))
	for _, m := range migrations {
		byVersion[m.Version] = m
	}

	remove := db.Rebind("DELETE FROM schema_migrations WHERE version = ?")
	for _, version := range versions {
		migration := byVersion[version]
		if migration.Down == "" {
			log.Warn().
				Int("version", version).
				Msg("No down migration found, skipping")
			continue
		}

		log.Info().
			Int("version", version).
			Msg("Rolling back migration")

		tx, err := db.Beginx()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if _, err := tx.Exec(migration.Down); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute rollback for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(remove, version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to remove migration record %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit rollback for migration %d: %w", version, err)
		}

		log.Info().
			Int("version", version).
			Msg("Rollback completed successfully")
	}

	return nil
}
