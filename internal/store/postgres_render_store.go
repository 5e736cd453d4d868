package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const renderSchemaSQL = `
CREATE TABLE IF NOT EXISTS render_logs (
	id TEXT PRIMARY KEY,
	preset TEXT NOT NULL,
	image TEXT NOT NULL,
	status TEXT NOT NULL,
	variants INTEGER NOT NULL,
	cache_hits INTEGER NOT NULL,
	skipped INTEGER NOT NULL,
	duration_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

type PostgresRenderStore struct {
	db *sql.DB
}

func NewPostgresRenderStore(ctx context.Context, dsn string) (*PostgresRenderStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresRenderStore{db: db}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresRenderStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, renderSchemaSQL); err != nil {
		return fmt.Errorf("ensure render_logs schema: %w", err)
	}
	return nil
}

func (s *PostgresRenderStore) Close() error {
	return s.db.Close()
}

func (s *PostgresRenderStore) CreateRenderLog(ctx context.Context, entry RenderLog) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO render_logs (id, preset, image, status, variants, cache_hits, skipped, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID,
		entry.Preset,
		entry.Image,
		entry.Status,
		entry.Variants,
		entry.CacheHits,
		entry.Skipped,
		entry.DurationMS,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert render log: %w", err)
	}
	return nil
}

func (s *PostgresRenderStore) Recent(ctx context.Context, limit int) ([]RenderLog, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, preset, image, status, variants, cache_hits, skipped, duration_ms, created_at
		 FROM render_logs
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query render logs: %w", err)
	}
	defer rows.Close()

	var out []RenderLog
	for rows.Next() {
		var entry RenderLog
		if err := rows.Scan(
			&entry.ID,
			&entry.Preset,
			&entry.Image,
			&entry.Status,
			&entry.Variants,
			&entry.CacheHits,
			&entry.Skipped,
			&entry.DurationMS,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan render log: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate render logs: %w", err)
	}
	return out, nil
}
