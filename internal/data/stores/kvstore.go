package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/todo/internal/core/kv"
	"github.com/colonyops/todo/internal/data/db"
)

// KVStore implements kv.KV using SQLite.
type KVStore struct {
	db *db.DB
}

var _ kv.KV = (*KVStore)(nil)

// NewKVStore creates a new SQLite-backed KV store.
func NewKVStore(db *db.DB) *KVStore {
	return &KVStore{db: db}
}

// Get returns the value stored under key.
// Returns an error wrapping kv.ErrNotFound if the key does not exist.
func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	row, err := s.db.Queries().KVGet(ctx, key)
	if IsNotFoundError(err) {
		return "", fmt.Errorf("kv get %q: %w", key, kv.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("kv get %q: %w", key, err)
	}
	return row.Value, nil
}

// Set stores value under key, keeping the original creation time on overwrite.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	now := time.Now().UnixNano()
	err := s.db.Queries().KVSet(ctx, db.KVSetParams{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if IsBusyError(err) {
		return fmt.Errorf("kv set %q: database is locked by another process: %w", key, err)
	}
	if err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := s.db.Queries().KVDelete(ctx, key); err != nil {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}

// Keys returns all keys in sorted order.
func (s *KVStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.db.Queries().KVKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("kv list keys: %w", err)
	}
	return keys, nil
}

// UpdatedAt returns when key was last written.
func (s *KVStore) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	row, err := s.db.Queries().KVGet(ctx, key)
	if IsNotFoundError(err) {
		return time.Time{}, fmt.Errorf("kv updated at %q: %w", key, kv.ErrNotFound)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("kv updated at %q: %w", key, err)
	}
	return time.Unix(0, row.UpdatedAt), nil
}
