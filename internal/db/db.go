// Package db provides PostgreSQL access to the persistent job store.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool  *pgxpool.Pool
	table string
}

// DefaultTable is the table the hot-jobs pipeline reads from.
const DefaultTable = "hot_jobs"

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool, table: DefaultTable}, nil
}

// WithTable returns a copy of db reading from table instead of DefaultTable.
func (db *DB) WithTable(table string) *DB {
	if table == "" {
		return db
	}
	return &DB{pool: db.pool, table: table}
}

// Ping checks that the pool can still reach the server.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}
