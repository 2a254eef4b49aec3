// Package memkv is an in-memory kv.KV backend. Nothing survives the
// process; it serves ephemeral runs and tests.
package memkv

import (
	"context"
	"fmt"

	"github.com/colonyops/todo/internal/core/kv"
	mapkv "github.com/colonyops/todo/pkg/kv"
)

// Store implements kv.KV over an in-memory map.
type Store struct {
	data *mapkv.Store[string, string]
}

var _ kv.KV = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{data: mapkv.New[string, string]()}
}

// NewWith creates a store pre-populated with entries.
func NewWith(entries map[string]string) *Store {
	s := New()
	s.data.SetBatch(entries)
	return s
}

// Get returns the value for key.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	v, ok := s.data.Get(key)
	if !ok {
		return "", fmt.Errorf("memkv get %q: %w", key, kv.ErrNotFound)
	}
	return v, nil
}

// Set stores value under key.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.data.Set(key, value)
	return nil
}

// Delete removes key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.data.Delete(key)
	return nil
}

// Keys returns all keys in sorted order.
func (s *Store) Keys(_ context.Context) ([]string, error) {
	return s.data.Keys(), nil
}

// Reset removes every entry.
func (s *Store) Reset() {
	s.data.Clear()
}
