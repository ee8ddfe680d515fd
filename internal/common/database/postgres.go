// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"roster-optimizer/internal/common/config"
	apperrors "roster-optimizer/internal/common/errors"

	_ "github.com/lib/pq"
)

// rosterSchema holds the tables written by the solve-league worker.
const rosterSchema = `
CREATE TABLE IF NOT EXISTS roster_runs (
	id              UUID PRIMARY KEY,
	mode            TEXT NOT NULL,
	group_count     INTEGER NOT NULL,
	candidate_count INTEGER NOT NULL,
	rejected_count  INTEGER NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS roster_standings (
	run_id     UUID NOT NULL REFERENCES roster_runs(id) ON DELETE CASCADE,
	group_name TEXT NOT NULL,
	rank       INTEGER NOT NULL,
	total      DOUBLE PRECISION NOT NULL,
	complete   BOOLEAN NOT NULL,
	method     TEXT NOT NULL,
	PRIMARY KEY (run_id, group_name)
);

CREATE TABLE IF NOT EXISTS roster_assignments (
	run_id       UUID NOT NULL REFERENCES roster_runs(id) ON DELETE CASCADE,
	group_name   TEXT NOT NULL,
	candidate_id TEXT NOT NULL,
	name         TEXT NOT NULL,
	category     TEXT NOT NULL,
	value        DOUBLE PRECISION NOT NULL,
	eligible     TEXT NOT NULL,
	PRIMARY KEY (run_id, candidate_id)
);
`

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}
	return nil
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Migrate creates the roster tables when they do not exist yet.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	return EnsureRosterSchema(ctx, c.DB)
}

// EnsureRosterSchema applies the roster DDL. Every statement is idempotent.
func EnsureRosterSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, rosterSchema); err != nil {
		return fmt.Errorf("failed to apply roster schema: %w", err)
	}
	return nil
}
