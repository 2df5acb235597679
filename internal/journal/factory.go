package journal

import (
	"context"
	"fmt"

	"github.com/lugondev/go-umi/internal/config"
)

// BackendType names a journal storage backend.
type BackendType string

const (
	BackendMemory   BackendType = "memory"
	BackendPostgres BackendType = "postgres"
)

var postgresFactory func(context.Context, *config.PostgresConfig) (Repository, error)

// RegisterPostgresFactory installs the constructor used for the postgres
// backend. The postgres package registers itself on import.
func RegisterPostgresFactory(factory func(context.Context, *config.PostgresConfig) (Repository, error)) {
	postgresFactory = factory
}

// Open returns the repository selected by cfg.
func Open(ctx context.Context, cfg *config.JournalConfig) (Repository, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("journal is not enabled in configuration")
	}

	var repo Repository
	switch BackendType(cfg.Type) {
	case BackendMemory, "":
		repo = NewMemoryRepository()
	case BackendPostgres:
		if postgresFactory == nil {
			panic("postgres factory not registered - import _ \"github.com/lugondev/go-umi/internal/journal/postgres\"")
		}
		var err error
		if repo, err = postgresFactory(ctx, &cfg.Postgres); err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported journal type: %s", cfg.Type)
	}

	if err := repo.Ping(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}
	return repo, nil
}
