// Package store persists the merged snapshot in a key/value table and
// keeps compatibility mirrors for legacy consumers.
package store

import (
	"context"
	"database/sql"

	"github.com/shiftline/shiftline-backend/pkg/database"
)

// KV is origin-scoped key/value persistence over the kv_store table.
type KV struct {
	db *database.DB
}

// NewKV creates a new KV store
func NewKV(db *database.DB) *KV {
	return &KV{db: db}
}

// EnsureSchema creates the kv_store table when missing
func (kv *KV) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS kv_store (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	_, err := kv.db.ExecContext(ctx, query)
	return err
}

// Get returns the value for key, with found false when absent.
func (kv *KV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	query := `SELECT value FROM kv_store WHERE key = $1`

	err := kv.db.GetContext(ctx, &value, query, key)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set creates or replaces the value for key
func (kv *KV) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key)
		DO UPDATE SET value = $2, updated_at = NOW()
	`

	_, err := kv.db.ExecContext(ctx, query, key, value)
	return err
}

// Remove deletes the key. Removing an absent key is not an error.
func (kv *KV) Remove(ctx context.Context, key string) error {
	query := `DELETE FROM kv_store WHERE key = $1`
	_, err := kv.db.ExecContext(ctx, query, key)
	return err
}
