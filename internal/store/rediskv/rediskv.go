// Package rediskv is a kv.KV backend on Redis. Keys are stored under a
// configurable prefix so several installs can share one server.
package rediskv

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/colonyops/todo/internal/core/kv"
)

// DefaultPrefix namespaces keys when config leaves the prefix empty.
const DefaultPrefix = "todo:"

const scanBatch = 100

// Store implements kv.KV using Redis strings.
type Store struct {
	client redis.UniversalClient
	prefix string
}

var _ kv.KV = (*Store)(nil)

// New wraps client. Every key is stored as prefix+key.
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Ping verifies the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Get returns the value for key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("redis get %q: %w", key, kv.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("redis get %q: %w", key, err)
	}
	return v, nil
}

// Set stores value under key with no expiry and announces the change on
// EventsChannel.
func (s *Store) Set(ctx context.Context, key, value string) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.prefix+key, value, 0)
	if err := s.publish(ctx, pipe, message{Key: key, Value: value}); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Delete removes key and announces the change on EventsChannel.
func (s *Store) Delete(ctx context.Context, key string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.prefix+key)
	if err := s.publish(ctx, pipe, message{Key: key, Deleted: true}); err != nil {
		return fmt.Errorf("redis delete %q: %w", key, err)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete %q: %w", key, err)
	}
	return nil
}

// Keys returns the keys under the prefix, sorted, with the prefix removed.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	keys := []string{}
	iter := s.client.Scan(ctx, 0, escapeGlob(s.prefix)+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis keys: %w", err)
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

// escapeGlob quotes the characters SCAN MATCH treats as patterns.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
