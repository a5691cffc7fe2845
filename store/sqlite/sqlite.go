package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/smallnest/ragagents/rag/store"
)

// SqliteBackend implements store.Backend using SQLite
type SqliteBackend struct {
	db          *sql.DB
	collections string
	points      string
}

var _ store.Backend = (*SqliteBackend)(nil)

// SqliteOptions configuration for SQLite connection
type SqliteOptions struct {
	Path        string
	TablePrefix string // Default "vector_"
}

// NewSqliteBackend opens the database and creates the schema
func NewSqliteBackend(opts SqliteOptions) (*SqliteBackend, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	prefix := opts.TablePrefix
	if prefix == "" {
		prefix = "vector_"
	}

	b := &SqliteBackend{
		db:          db,
		collections: prefix + "collections",
		points:      prefix + "points",
	}

	if err := b.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return b, nil
}

// InitSchema creates the necessary tables if they don't exist
func (b *SqliteBackend) InitSchema(ctx context.Context) error {
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

	if _, err := b.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (b *SqliteBackend) Close() error {
	return b.db.Close()
}

// CollectionInfo returns the config of a collection
func (b *SqliteBackend) CollectionInfo(ctx context.Context, name string) (store.CollectionConfig, bool, error) {
	query := fmt.Sprintf(`SELECT size, distance FROM %s WHERE name = ?`, b.collections)

	var cfg store.CollectionConfig
	var distance string
	err := b.db.QueryRowContext(ctx, query, name).Scan(&cfg.Size, &distance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.CollectionConfig{}, false, nil
		}
		return store.CollectionConfig{}, false, fmt.Errorf("failed to load collection: %w", err)
	}
	cfg.Distance = store.Distance(distance)
	return cfg, true, nil
}

// CreateCollection inserts a collection row
func (b *SqliteBackend) CreateCollection(ctx context.Context, name string, cfg store.CollectionConfig) error {
	query := fmt.Sprintf(`INSERT INTO %s (name, size, distance) VALUES (?, ?, ?)`, b.collections)
	if _, err := b.db.ExecContext(ctx, query, name, cfg.Size, string(cfg.Distance)); err != nil {
		return fmt.Errorf("failed to save collection: %w", err)
	}
	return nil
}

// DeleteCollection removes a collection and its points
func (b *SqliteBackend) DeleteCollection(ctx context.Context, name string) (bool, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE collection = ?`, b.points), name); err != nil {
		return false, fmt.Errorf("failed to delete points: %w", err)
	}
	res, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE name = ?`, b.collections), name)
	if err != nil {
		return false, fmt.Errorf("failed to delete collection: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	return n > 0, nil
}

// Upsert stores points in one transaction
func (b *SqliteBackend) Upsert(ctx context.Context, name string, points []store.Point) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (collection, id, vector, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			vector = excluded.vector,
			payload = excluded.payload
	`, b.points)

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		vectorJSON, err := json.Marshal(p.Vector)
		if err != nil {
			return fmt.Errorf("failed to marshal vector: %w", err)
		}
		payloadJSON, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, name, p.ID, string(vectorJSON), string(payloadJSON)); err != nil {
			return fmt.Errorf("failed to save point %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// Points returns all points of a collection in insertion order
func (b *SqliteBackend) Points(ctx context.Context, name string) ([]store.Point, error) {
	query := fmt.Sprintf(`SELECT id, vector, payload FROM %s WHERE collection = ? ORDER BY rowid`, b.points)

	rows, err := b.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list points: %w", err)
	}
	defer rows.Close()

	var points []store.Point
	for rows.Next() {
		var p store.Point
		var vectorJSON string
		var payloadJSON sql.NullString
		if err := rows.Scan(&p.ID, &vectorJSON, &payloadJSON); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		if err := json.Unmarshal([]byte(vectorJSON), &p.Vector); err != nil {
			return nil, fmt.Errorf("failed to unmarshal vector: %w", err)
		}
		if payloadJSON.Valid && payloadJSON.String != "" {
			if err := json.Unmarshal([]byte(payloadJSON.String), &p.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
			}
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
