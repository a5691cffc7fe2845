package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smallnest/ragagents/rag/store"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresBackend implements store.Backend using PostgreSQL
type PostgresBackend struct {
	pool        DBPool
	collections string
	points      string
}

var _ store.Backend = (*PostgresBackend)(nil)

// PostgresOptions configuration for Postgres connection
type PostgresOptions struct {
	ConnString  string
	TablePrefix string // Default "vector_"
}

// NewPostgresBackend connects to Postgres and creates the schema
func NewPostgresBackend(ctx context.Context, opts PostgresOptions) (*PostgresBackend, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	b := NewPostgresBackendWithPool(pool, opts.TablePrefix)
	if err := b.InitSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return b, nil
}

// NewPostgresBackendWithPool creates a backend with an existing pool
// Useful for testing with mocks
func NewPostgresBackendWithPool(pool DBPool, tablePrefix string) *PostgresBackend {
	if tablePrefix == "" {
		tablePrefix = "vector_"
	}
	return &PostgresBackend{
		pool:        pool,
		collections: tablePrefix + "collections",
		points:      tablePrefix + "points",
	}
}

// InitSchema creates the necessary tables if they don't exist
func (b *PostgresBackend) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name TEXT PRIMARY KEY,
			size INTEGER NOT NULL,
			distance TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS %s (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			vector TEXT NOT NULL,
			payload TEXT,
			PRIMARY KEY (collection, id)
		);
	`, b.collections, b.points)

	if _, err := b.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}

// CollectionInfo returns the config of a collection
func (b *PostgresBackend) CollectionInfo(ctx context.Context, name string) (store.CollectionConfig, bool, error) {
	query := fmt.Sprintf("SELECT size, distance FROM %s WHERE name = $1", b.collections)

	var cfg store.CollectionConfig
	var distance string
	if err := b.pool.QueryRow(ctx, query, name).Scan(&cfg.Size, &distance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.CollectionConfig{}, false, nil
		}
		return store.CollectionConfig{}, false, fmt.Errorf("failed to load collection: %w", err)
	}
	cfg.Distance = store.Distance(distance)
	return cfg, true, nil
}

// CreateCollection inserts a collection row
func (b *PostgresBackend) CreateCollection(ctx context.Context, name string, cfg store.CollectionConfig) error {
	query := fmt.Sprintf("INSERT INTO %s (name, size, distance) VALUES ($1, $2, $3)", b.collections)
	if _, err := b.pool.Exec(ctx, query, name, cfg.Size, string(cfg.Distance)); err != nil {
		return fmt.Errorf("failed to save collection: %w", err)
	}
	return nil
}

// DeleteCollection removes a collection and its points
func (b *PostgresBackend) DeleteCollection(ctx context.Context, name string) (bool, error) {
	if _, err := b.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE collection = $1", b.points), name); err != nil {
		return false, fmt.Errorf("failed to delete points: %w", err)
	}
	tag, err := b.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE name = $1", b.collections), name)
	if err != nil {
		return false, fmt.Errorf("failed to delete collection: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Upsert stores points, one statement per point
func (b *PostgresBackend) Upsert(ctx context.Context, name string, points []store.Point) error {
	query := fmt.Sprintf(`INSERT INTO %s (collection, id, vector, payload) VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, id) DO UPDATE SET vector = EXCLUDED.vector, payload = EXCLUDED.payload`, b.points)

	for _, p := range points {
		vectorJSON, err := json.Marshal(p.Vector)
		if err != nil {
			return fmt.Errorf("failed to marshal vector: %w", err)
		}
		payloadJSON, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		if _, err := b.pool.Exec(ctx, query, name, p.ID, string(vectorJSON), string(payloadJSON)); err != nil {
			return fmt.Errorf("failed to save point %s: %w", p.ID, err)
		}
	}
	return nil
}

// Points returns all points of a collection ordered by id
func (b *PostgresBackend) Points(ctx context.Context, name string) ([]store.Point, error) {
	query := fmt.Sprintf("SELECT id, vector, payload FROM %s WHERE collection = $1 ORDER BY id", b.points)

	rows, err := b.pool.Query(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list points: %w", err)
	}
	defer rows.Close()

	var points []store.Point
	for rows.Next() {
		var p store.Point
		var vectorJSON, payloadJSON string
		if err := rows.Scan(&p.ID, &vectorJSON, &payloadJSON); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		if err := json.Unmarshal([]byte(vectorJSON), &p.Vector); err != nil {
			return nil, fmt.Errorf("failed to unmarshal vector: %w", err)
		}
		if payloadJSON != "" {
			if err := json.Unmarshal([]byte(payloadJSON), &p.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
			}
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
