// Package database is the optional Postgres sink, enabled when DATABASE_URL
// is set. It mirrors the CSV output so downstream jobs can query runs.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cenozavr/okey-delivery-scraper/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id             BIGSERIAL PRIMARY KEY,
	run_id         TEXT        NOT NULL,
	name           TEXT        NOT NULL,
	url            TEXT        NOT NULL,
	image_url      TEXT        NOT NULL,
	category       TEXT        NOT NULL,
	full_price     TEXT        NOT NULL,
	discount_price TEXT        NOT NULL,
	scraped_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS products_run_id_idx ON products (run_id);
`

// DB wraps a pgx connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New connects, pings, and bootstraps the schema.
func New(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{pool: pool}
	if err := db.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) ensureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// InsertRecords stores all records for a run in one batch.
func (db *DB) InsertRecords(ctx context.Context, runID string, records []*models.ProductRecord) error {
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(
			`INSERT INTO products (run_id, name, url, image_url, category, full_price, discount_price)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			runID, r.Name, r.URL, r.ImageURL, r.Category, r.FullPrice, r.DiscountPrice,
		)
	}
	results := db.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
	}
	return nil
}

// Close releases the pool.
func (db *DB) Close() {
	db.pool.Close()
}
