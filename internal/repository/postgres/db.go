package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PoolConfig sizes the connection pool. The zero value gets defaults
// suited to a small game server.
type PoolConfig struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

func (c PoolConfig) withDefaults() PoolConfig {
	if c.MaxOpen == 0 {
		c.MaxOpen = 25
	}
	if c.MaxIdle == 0 {
		c.MaxIdle = 5
	}
	if c.MaxLifetime == 0 {
		c.MaxLifetime = 30 * time.Minute
	}
	return c
}

func configurePool(db *sql.DB, cfg PoolConfig) {
	cfg = cfg.withDefaults()
	db.SetMaxOpenConns(cfg.MaxOpen)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(cfg.MaxLifetime)
}

// Connect opens a connection pool and waits for the database to answer.
// Postgres often comes up after the server under compose, so the ping
// retries until the context runs out.
func Connect(ctx context.Context, databaseURL string, cfg PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	configurePool(db, cfg)

	var pingErr error
	for {
		if pingErr = db.PingContext(ctx); pingErr == nil {
			return db, nil
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("postgres ping: %w", pingErr)
		case <-time.After(time.Second):
		}
	}
}
