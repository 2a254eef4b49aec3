package rediskv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/todo/internal/core/kv"
	"github.com/colonyops/todo/internal/core/kv/kvtest"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestStore_Conformance(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.KV {
		client, _ := setupTestRedis(t)
		return New(client, "test:")
	})
}

func TestStore_Prefix(t *testing.T) {
	ctx := context.Background()
	client, mr := setupTestRedis(t)

	mine := New(client, "todo:")
	require.NoError(t, mine.Set(ctx, "todo-theme", "dark"))
	require.NoError(t, mr.Set("other:todo-theme", "light"))

	got, err := mr.Get("todo:todo-theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", got)

	keys, err := mine.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"todo-theme"}, keys)
}

func TestStore_DefaultPrefix(t *testing.T) {
	client, _ := setupTestRedis(t)
	s := New(client, "")
	assert.Equal(t, DefaultPrefix, s.prefix)
	require.NoError(t, s.Ping(context.Background()))
}

func TestStore_ServerDown(t *testing.T) {
	ctx := context.Background()
	client, mr := setupTestRedis(t)
	s := New(client, "")

	mr.Close()

	_, err := s.Get(ctx, "todo-theme")
	require.Error(t, err)
	assert.False(t, kv.IsNotFound(err))
	require.Error(t, s.Set(ctx, "todo-theme", "dark"))
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `todo:`, escapeGlob("todo:"))
	assert.Equal(t, `a\*b\?\[c\]`, escapeGlob("a*b?[c]"))
}
