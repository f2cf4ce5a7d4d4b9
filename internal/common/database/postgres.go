// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mortgage-readiness/internal/common/config"
	"mortgage-readiness/internal/common/errors"

	_ "github.com/lib/pq"
)

// assessmentsDDL creates the assessment history table. dti is NULL when the
// ratio is unbounded (zero income).
const assessmentsDDL = `
CREATE TABLE IF NOT EXISTS mortgage_assessments (
	id               UUID PRIMARY KEY,
	application_id   TEXT,
	model_id         TEXT NOT NULL,
	category         TEXT NOT NULL,
	confidence       DOUBLE PRECISION NOT NULL,
	dti              DOUBLE PRECISION,
	max_credit       DOUBLE PRECISION NOT NULL,
	recommendations  JSONB NOT NULL,
	applicant        JSONB NOT NULL,
	assessed_at      TIMESTAMPTZ NOT NULL
)`

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens a pooled PostgreSQL handle; it does not dial until Ping.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(fmt.Errorf("failed to open postgres: %w", err))
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// NewPostgresFromDB wraps an existing handle, e.g. a sqlmock connection.
func NewPostgresFromDB(db *sql.DB) *PostgresClient {
	return &PostgresClient{DB: db}
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return errors.NewDatabaseConnectionFailedError(err)
	}
	return nil
}

// Migrate creates the tables the service writes to.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, assessmentsDDL); err != nil {
		return fmt.Errorf("create mortgage_assessments: %w", err)
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

// GetDB returns the underlying *sql.DB
func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}
