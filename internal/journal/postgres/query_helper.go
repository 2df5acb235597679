package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ScanFunc decodes one row.
type ScanFunc[T any] func(row pgx.Row) (*T, error)

// QueryMany runs query and scans every row.
func QueryMany[T any](
	pool *pgxpool.Pool,
	ctx context.Context,
	query string,
	scanFunc ScanFunc[T],
	args ...interface{},
) ([]*T, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*T, 0)
	for rows.Next() {
		item, err := scanFunc(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	return results, rows.Err()
}

// QueryOne runs query and scans the first row.
func QueryOne[T any](
	pool *pgxpool.Pool,
	ctx context.Context,
	query string,
	scanFunc ScanFunc[T],
	args ...interface{},
) (*T, error) {
	row := pool.QueryRow(ctx, query, args...)
	return scanFunc(row)
}
