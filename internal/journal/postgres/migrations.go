package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migration is one versioned schema change.
type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Submission journal",
		Up: `
		CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			signature TEXT UNIQUE NOT NULL,
			cluster TEXT NOT NULL,
			state TEXT NOT NULL,
			strategy TEXT NOT NULL,
			slot BIGINT NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_submissions_state ON submissions(state);
		CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at DESC);
		`,
		Down: `
		DROP TABLE IF EXISTS submissions;
		`,
	},
	{
		Version:     2,
		Description: "Submission cluster index",
		Up: `
		CREATE INDEX IF NOT EXISTS idx_submissions_cluster_state ON submissions(cluster, state);
		`,
		Down: `
		DROP INDEX IF EXISTS idx_submissions_cluster_state;
		`,
	},
	{
		Version:     3,
		Description: "Submission expiry data",
		Up: `
		ALTER TABLE submissions ADD COLUMN IF NOT EXISTS last_valid_block_height BIGINT NOT NULL DEFAULT 0;
		ALTER TABLE submissions ADD COLUMN IF NOT EXISTS nonce_account TEXT NOT NULL DEFAULT '';
		ALTER TABLE submissions ADD COLUMN IF NOT EXISTS nonce_value TEXT NOT NULL DEFAULT '';
		`,
		Down: `
		ALTER TABLE submissions DROP COLUMN IF EXISTS nonce_value;
		ALTER TABLE submissions DROP COLUMN IF EXISTS nonce_account;
		ALTER TABLE submissions DROP COLUMN IF EXISTS last_valid_block_height;
		`,
	},
}

// MigrationStatus reports whether one migration has been applied.
type MigrationStatus struct {
	Migration
	Applied bool
}

// Migrator applies and rolls back the journal schema.
type Migrator struct {
	pool *pgxpool.Pool
}

// NewMigrator returns a migrator using pool.
func NewMigrator(pool *pgxpool.Pool) *Migrator {
	return &Migrator{pool: pool}
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INT PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TIMESTAMP NOT NULL DEFAULT NOW()
	);
	`
	_, err := m.pool.Exec(ctx, query)
	return err
}

func (m *Migrator) getCurrentVersion(ctx context.Context) (int, error) {
	var version int
	err := m.pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// Up applies every pending migration in one transaction.
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, migration := range pending(currentVersion) {
		if _, err := tx.Exec(ctx, migration.Up); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}
	return nil
}

// Down rolls back the last steps applied migrations.
func (m *Migrator) Down(ctx context.Context, steps int) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	if currentVersion == 0 {
		return fmt.Errorf("no migrations to rollback")
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rolledBack := 0
	for i := len(migrations) - 1; i >= 0 && rolledBack < steps; i-- {
		migration := migrations[i]
		if migration.Version > currentVersion {
			continue
		}

		if _, err := tx.Exec(ctx, migration.Down); err != nil {
			return fmt.Errorf("failed to rollback migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec(ctx,
			"DELETE FROM schema_migrations WHERE version = $1",
			migration.Version,
		); err != nil {
			return fmt.Errorf("failed to remove migration record %d: %w", migration.Version, err)
		}

		rolledBack++
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rollback: %w", err)
	}
	return nil
}

// Status lists every known migration and whether it has been applied.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.createMigrationsTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current version: %w", err)
	}

	statuses := make([]MigrationStatus, len(migrations))
	for i, migration := range migrations {
		statuses[i] = MigrationStatus{Migration: migration, Applied: migration.Version <= currentVersion}
	}
	return statuses, nil
}

// pending returns the migrations newer than version, in order.
func pending(version int) []Migration {
	out := make([]Migration, 0, len(migrations))
	for _, migration := range migrations {
		if migration.Version > version {
			out = append(out, migration)
		}
	}
	return out
}
