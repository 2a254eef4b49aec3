// Package kvtest provides a conformance suite every kv.KV backend runs in
// its own tests, plus a fault-injecting wrapper for persistence failure
// tests.
package kvtest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/todo/internal/core/kv"
)

// Run exercises the kv.KV contract against stores produced by newStore.
// Each subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) kv.KV) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(ctx, "missing")
		require.Error(t, err)
		assert.True(t, kv.IsNotFound(err), "error %v should wrap kv.ErrNotFound", err)
	})

	t.Run("set and get", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set(ctx, "todo-revamped::todos", `[{"id":"1"}]`))

		got, err := store.Get(ctx, "todo-revamped::todos")
		require.NoError(t, err)
		assert.Equal(t, `[{"id":"1"}]`, got)
	})

	t.Run("overwrite", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set(ctx, "k", "first"))
		require.NoError(t, store.Set(ctx, "k", "second"))

		got, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "second", got)
	})

	t.Run("empty value is stored", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set(ctx, "k", ""))

		got, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("delete", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set(ctx, "k", "v"))
		require.NoError(t, store.Delete(ctx, "k"))

		_, err := store.Get(ctx, "k")
		assert.True(t, kv.IsNotFound(err))

		require.NoError(t, store.Delete(ctx, "k"), "deleting a missing key is not an error")
	})

	t.Run("keys sorted", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set(ctx, "todo-theme", "dark"))
		require.NoError(t, store.Set(ctx, "b::two", "2"))
		require.NoError(t, store.Set(ctx, "a::one", "1"))

		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a::one", "b::two", "todo-theme"}, keys)
	})
}

// ErrInjected is returned by a Faulty store for operations set to fail.
var ErrInjected = errors.New("injected storage failure")

// Faulty wraps a store and fails selected operations, simulating quota or
// availability errors.
type Faulty struct {
	kv.KV

	mu      sync.Mutex
	failGet bool
	failSet bool
	sets    int
}

// NewFaulty wraps store.
func NewFaulty(store kv.KV) *Faulty {
	return &Faulty{KV: store}
}

// FailGet makes every Get fail while on is true.
func (f *Faulty) FailGet(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGet = on
}

// FailSet makes every Set fail while on is true.
func (f *Faulty) FailSet(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet = on
}

// Sets returns how many Set calls reached the wrapper, failed or not.
func (f *Faulty) Sets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

// Get implements kv.KV.
func (f *Faulty) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return "", ErrInjected
	}
	return f.KV.Get(ctx, key)
}

// Set implements kv.KV.
func (f *Faulty) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	f.sets++
	fail := f.failSet
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.KV.Set(ctx, key, value)
}
