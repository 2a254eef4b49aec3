// Package kv defines the key/value storage backend the todo collection and
// the theme preference persist through.
package kv

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is wrapped by Get when a key has never been written or has
// been deleted.
var ErrNotFound = errors.New("key not found")

// Separator joins a namespace and a name in a key.
const Separator = "::"

// KV is a persistent string key/value store. Values are opaque text; callers
// own their serialization. Keys are returned sorted. Get on a missing key
// returns an error wrapping ErrNotFound.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Event describes a change to a key made outside the current process.
type Event struct {
	Key     string
	Value   string
	Deleted bool
}

// Key builds a namespaced key, e.g. Key("todo-revamped", "todos") is
// "todo-revamped::todos".
func Key(namespace, name string) string {
	return namespace + Separator + name
}

// SplitKey is the inverse of Key. ok is false when key has no namespace.
func SplitKey(key string) (namespace, name string, ok bool) {
	return strings.Cut(key, Separator)
}

// IsNotFound reports whether err means the key is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Namespace scopes every key of a store under a single prefix.
type Namespace struct {
	store     KV
	namespace string
}

// Scoped returns a Namespace that prefixes keys with "namespace::".
func Scoped(store KV, namespace string) *Namespace {
	return &Namespace{store: store, namespace: namespace}
}

// Key returns the full key for name.
func (n *Namespace) Key(name string) string {
	return Key(n.namespace, name)
}

// Get reads name within the namespace.
func (n *Namespace) Get(ctx context.Context, name string) (string, error) {
	return n.store.Get(ctx, n.Key(name))
}

// Set writes name within the namespace.
func (n *Namespace) Set(ctx context.Context, name, value string) error {
	return n.store.Set(ctx, n.Key(name), value)
}

// Delete removes name within the namespace.
func (n *Namespace) Delete(ctx context.Context, name string) error {
	return n.store.Delete(ctx, n.Key(name))
}

// Names lists the names stored in the namespace, in the backend's key order.
func (n *Namespace) Names(ctx context.Context) ([]string, error) {
	keys, err := n.store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	prefix := n.namespace + Separator
	var names []string
	for _, k := range keys {
		if name, ok := strings.CutPrefix(k, prefix); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// Watcher streams Events for keys matching a doublestar pattern. An empty
// pattern matches every key. The channel closes when ctx is done.
type Watcher interface {
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}
