// Package postgres stores the submission journal in PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lugondev/go-umi/internal/config"
	"github.com/lugondev/go-umi/internal/confirm"
	"github.com/lugondev/go-umi/internal/errors"
	"github.com/lugondev/go-umi/internal/journal"
)

func init() {
	journal.RegisterPostgresFactory(func(ctx context.Context, cfg *config.PostgresConfig) (journal.Repository, error) {
		return NewPostgresRepository(ctx, cfg)
	})
}

// PostgresRepository stores journal entries in the submissions table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ journal.Repository = (*PostgresRepository)(nil)

// NewPostgresRepository connects with the pool limits from cfg.
func NewPostgresRepository(ctx context.Context, cfg *config.PostgresConfig) (*PostgresRepository, error) {
	return Connect(ctx, cfg.ConnString(), func(pc *pgxpool.Config) {
		if cfg.MaxOpenConns > 0 {
			pc.MaxConns = int32(cfg.MaxOpenConns)
		}
		pc.MinConns = int32(cfg.MaxIdleConns)
		if cfg.ConnMaxLifetime > 0 {
			pc.MaxConnLifetime = time.Duration(cfg.ConnMaxLifetime) * time.Second
		}
	})
}

// Connect opens a pool on connString and applies pending migrations.
func Connect(ctx context.Context, connString string, tune func(*pgxpool.Config)) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.HealthCheckPeriod = time.Minute
	if tune != nil {
		tune(poolConfig)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrator := NewMigrator(pool)
	if err := migrator.Up(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

const entryColumns = `id, signature, cluster, state, strategy, slot, error,
	last_valid_block_height, nonce_account, nonce_value, created_at, updated_at`

// Save upserts e by signature.
func (r *PostgresRepository) Save(ctx context.Context, e *journal.Entry) error {
	query := `
		INSERT INTO submissions (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (signature) DO UPDATE SET
			cluster = $3, state = $4, strategy = $5, slot = $6, error = $7,
			last_valid_block_height = $8, nonce_account = $9, nonce_value = $10,
			updated_at = $12
	`
	_, err := r.pool.Exec(ctx, query,
		e.ID, e.Signature, e.Cluster, string(e.State), e.Strategy,
		int64(e.Slot), e.Error,
		int64(e.LastValidBlockHeight), e.NonceAccount, e.NonceValue,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return errors.JournalFailure("save entry", err)
	}
	return nil
}

const updateQuery = `
	UPDATE submissions SET state = $2, slot = $3, error = $4, updated_at = NOW()
	WHERE signature = $1
`

// Update changes the state, slot and error of the entry for e.Signature.
func (r *PostgresRepository) Update(ctx context.Context, e *journal.Entry) error {
	tag, err := r.pool.Exec(ctx, updateQuery, e.Signature, string(e.State), int64(e.Slot), e.Error)
	if err != nil {
		return errors.JournalFailure("update entry", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.JournalFailure("update entry", fmt.Errorf("no entry for signature %s", e.Signature))
	}
	return nil
}

// UpdateBatch sends every update in one pgx batch.
func (r *PostgresRepository) UpdateBatch(ctx context.Context, entries []*journal.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(updateQuery, e.Signature, string(e.State), int64(e.Slot), e.Error)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range entries {
		if _, err := br.Exec(); err != nil {
			return errors.JournalFailure("update entries", err)
		}
	}
	if err := br.Close(); err != nil {
		return errors.JournalFailure("update entries", err)
	}
	return nil
}

// FindBySignature returns nil when no entry exists.
func (r *PostgresRepository) FindBySignature(ctx context.Context, signature string) (*journal.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM submissions WHERE signature = $1`
	entry, err := QueryOne(r.pool, ctx, query, scanEntry, signature)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.JournalFailure("find entry", err)
	}
	return entry, nil
}

// FindPending returns unsettled entries oldest first, ties broken by
// signature.
func (r *PostgresRepository) FindPending(ctx context.Context, limit int, offset int) ([]*journal.Entry, error) {
	if err := journal.CheckPage("find pending entries", limit, offset); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = 1000
	}
	query := `
		SELECT ` + entryColumns + ` FROM submissions
		WHERE state = ANY($1)
		ORDER BY created_at ASC, signature ASC
		LIMIT $2 OFFSET $3
	`
	entries, err := QueryMany(r.pool, ctx, query, scanEntry, journal.PendingStates(), limit, offset)
	if err != nil {
		return nil, errors.JournalFailure("find pending entries", err)
	}
	return entries, nil
}

// List returns entries newest first.
func (r *PostgresRepository) List(ctx context.Context, limit int, offset int) ([]*journal.Entry, error) {
	if err := journal.CheckPage("list entries", limit, offset); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = 100
	}
	query := `
		SELECT ` + entryColumns + ` FROM submissions
		ORDER BY created_at DESC, signature DESC
		LIMIT $1 OFFSET $2
	`
	entries, err := QueryMany(r.pool, ctx, query, scanEntry, limit, offset)
	if err != nil {
		return nil, errors.JournalFailure("list entries", err)
	}
	return entries, nil
}

// Ping checks the pool.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Migrator returns a migrator bound to the repository pool.
func (r *PostgresRepository) Migrator() *Migrator {
	return NewMigrator(r.pool)
}

func scanEntry(row pgx.Row) (*journal.Entry, error) {
	var (
		e     journal.Entry
		state string
		slot  int64
		lvbh  int64
	)
	if err := row.Scan(
		&e.ID, &e.Signature, &e.Cluster, &state, &e.Strategy,
		&slot, &e.Error, &lvbh, &e.NonceAccount, &e.NonceValue,
		&e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.State = confirm.State(state)
	e.Slot = uint64(slot)
	e.LastValidBlockHeight = uint64(lvbh)
	return &e, nil
}
