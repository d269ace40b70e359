// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"photoshoot-api/internal/common/config"

	_ "github.com/lib/pq"
)

const (
	applicationName = "photoshoot-api"
	pingTimeout     = 3 * time.Second
)

// PostgresClient holds the connection pool behind the generation journal.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens the journal pool. It does not dial; call Ping to verify
// the server is reachable.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("postgres host is empty")
	}

	db, err := sql.Open("postgres", cfg.GetDSN()+" application_name="+applicationName)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	idle := cfg.MaxIdle
	if idle > cfg.MaxConnections {
		idle = cfg.MaxConnections
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(idle)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return NewPostgresFromDB(db), nil
}

// NewPostgresFromDB wraps an already opened pool.
func NewPostgresFromDB(db *sql.DB) *PostgresClient {
	return &PostgresClient{DB: db}
}

// Ping checks the pool, bounded so health probes stay responsive.
func (c *PostgresClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
