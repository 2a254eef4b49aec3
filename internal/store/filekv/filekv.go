// Package filekv stores each key in its own file under a directory. Writes
// are atomic (temp file + rename) so a concurrent reader in another process
// never sees a partial value.
package filekv

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/colonyops/todo/internal/core/kv"
)

// Ext is the suffix of every value file.
const Ext = ".kv"

// Store implements kv.KV on the filesystem.
type Store struct {
	dir string
}

var _ kv.KV = (*Store)(nil)

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory holding the value files.
func (s *Store) Dir() string {
	return s.dir
}

// Get returns the value for key.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("filekv get %q: %w", key, kv.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("filekv get %q: %w", key, err)
	}
	return string(data), nil
}

// Set atomically replaces the value for key.
func (s *Store) Set(_ context.Context, key, value string) error {
	tmp, err := os.CreateTemp(s.dir, ".write-*.tmp")
	if err != nil {
		return fmt.Errorf("filekv set %q: %w", key, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("filekv set %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("filekv set %q: %w", key, err)
	}

	if err := os.Rename(tmpPath, s.path(key)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("filekv set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Removing a missing key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("filekv delete %q: %w", key, err)
	}
	return nil
}

// Keys returns every stored key in sorted order.
func (s *Store) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("filekv keys: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, ok := KeyFromFilename(entry.Name())
		if !ok {
			continue
		}
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, Filename(key))
}

// Filename maps a key to the name of the file holding it. Keys are escaped
// so separators such as "::" and "/" are safe on every platform.
func Filename(key string) string {
	return url.QueryEscape(key) + Ext
}

// KeyFromFilename is the inverse of Filename. ok is false for files that
// are not value files (temp files, foreign files).
func KeyFromFilename(name string) (string, bool) {
	if strings.HasPrefix(name, ".") {
		return "", false
	}
	escaped, ok := strings.CutSuffix(name, Ext)
	if !ok || escaped == "" {
		return "", false
	}
	key, err := url.QueryUnescape(escaped)
	if err != nil {
		return "", false
	}
	return key, true
}
