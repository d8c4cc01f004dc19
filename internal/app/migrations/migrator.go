package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

//go:embed sql/*.sql
var embedded embed.FS

// Migrator applies versioned SQL files in name order and records each version
// in schema_migrations.
type Migrator struct {
	db     *pgxpool.Pool
	files  fs.FS
	dir    string
	logger zerolog.Logger
}

// NewMigrator creates a migrator over the embedded migration set
func NewMigrator(db *pgxpool.Pool, logger zerolog.Logger) *Migrator {
	return &Migrator{db: db, files: embedded, dir: "sql", logger: logger}
}

// ensureMigrationTableExists creates the migration tracking table if it doesn't exist
func (m *Migrator) ensureMigrationTableExists(ctx context.Context) error {
	_, err := m.db.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`)
	if err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

func (m *Migrator) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	var exists bool
	err := m.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return exists, nil
}

// Files lists migration files in the order they are applied
func (m *Migrator) Files() ([]string, error) {
	entries, err := fs.ReadDir(m.files, m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Up applies every migration that has not been applied yet. Each file runs in
// its own transaction together with its version record.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.ensureMigrationTableExists(ctx); err != nil {
		return 0, err
	}

	names, err := m.Files()
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, name := range names {
		ok, err := m.apply(ctx, name)
		if err != nil {
			return applied, err
		}
		if ok {
			applied++
		}
	}
	return applied, nil
}

func (m *Migrator) apply(ctx context.Context, name string) (bool, error) {
	// "001_init.sql" => "001"
	version := strings.SplitN(name, "_", 2)[0]

	done, err := m.isMigrationApplied(ctx, version)
	if err != nil {
		return false, err
	}
	if done {
		m.logger.Debug().Str("migration", name).Msg("Migration already applied, skipping")
		return false, nil
	}

	content, err := fs.ReadFile(m.files, path.Join(m.dir, name))
	if err != nil {
		return false, fmt.Errorf("failed to read migration file %s: %w", name, err)
	}

	tx, err := m.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(content)); err != nil {
		return false, fmt.Errorf("migration %s failed: %w", name, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return false, fmt.Errorf("failed to record migration %s: %w", name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit migration %s: %w", name, err)
	}

	m.logger.Info().Str("migration", name).Msg("Migration applied")
	return true, nil
}
