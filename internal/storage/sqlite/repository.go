package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"spendsmart/internal/storage"

	_ "modernc.org/sqlite"
)

const (
	getBlobSQL = `SELECT value FROM blobs WHERE key = ?`
	putBlobSQL = `INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	countBlobsSQL = `SELECT COUNT(*) FROM blobs`
)

// Repository stores blobs as rows of the blobs table.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; the store persists synchronously anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Get implements storage.BlobReader
func (r *Repository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, getBlobSQL, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", key, err)
	}
	return value, nil
}

// Put implements storage.BlobWriter
func (r *Repository) Put(ctx context.Context, key string, value []byte) error {
	if _, err := r.db.ExecContext(ctx, putBlobSQL, key, value); err != nil {
		return fmt.Errorf("put blob %s: %w", key, err)
	}
	return nil
}

// Count returns the number of stored keys.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, countBlobsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count blobs: %w", err)
	}
	return n, nil
}

// Ping checks that the database is still reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
