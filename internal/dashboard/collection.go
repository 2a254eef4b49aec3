// Package dashboard holds the authoritative todo collection and the create
// form's submit cycle. Every caller (CLI commands, the TUI) goes through a
// Collection; none touch the persisted payload directly.
package dashboard

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/colonyops/todo/internal/core/kv"
	"github.com/colonyops/todo/internal/core/todo"
)

// Namespace and Name form the storage key owned by the collection.
const (
	Namespace = "todo-revamped"
	Name      = "todos"
)

// StorageKey is the fixed key the collection persists under.
var StorageKey = kv.Key(Namespace, Name)

type guardState int

const (
	statePending guardState = iota
	stateRestoring
	stateActive
)

func (s guardState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateRestoring:
		return "restoring"
	case stateActive:
		return "active"
	}
	return "unknown"
}

// Option configures a Collection.
type Option func(*Collection)

// WithSeed sets the records shown before anything has been restored.
// A nil seed starts the collection empty.
func WithSeed(items []todo.Item) Option {
	return func(c *Collection) {
		c.items = slices.Clone(items)
	}
}

// WithIDGenerator replaces todo.NewID.
func WithIDGenerator(fn func() string) Option {
	return func(c *Collection) {
		c.newID = fn
	}
}

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(c *Collection) {
		c.key = key
	}
}

// Collection is the ordered list of todos. Order is the store's native
// order: newest first, as Create prepends. Storage failures never reach the
// caller; they are logged and the in-memory list stays authoritative.
type Collection struct {
	storage kv.KV
	log     zerolog.Logger
	key     string
	newID   func() string

	mu      sync.Mutex
	items   []todo.Item
	state   guardState
	version uint64
	// last payload read from or written to storage, used to skip echoes
	// of our own writes arriving through a watcher
	synced string

	subMu   sync.Mutex
	subs    map[int]func([]todo.Item)
	nextSub int

	// notifyMu serializes deliveries; notified is the newest version
	// delivered so far.
	notifyMu sync.Mutex
	notified uint64
}

// change is a snapshot of the collection taken under c.mu.
type change struct {
	items   []todo.Item
	version uint64
}

// NewCollection creates a collection persisting through storage. It holds
// the seed data until Load runs.
func NewCollection(storage kv.KV, log zerolog.Logger, opts ...Option) *Collection {
	c := &Collection{
		storage: storage,
		log:     log.With().Str("component", "collection").Logger(),
		key:     StorageKey,
		newID:   todo.NewID,
		items:   todo.Seed(),
		subs:    make(map[int]func([]todo.Item)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the storage key the collection owns.
func (c *Collection) Key() string {
	return c.key
}

// Load performs the first restoration from storage. Missing, unreadable or
// malformed payloads keep the seed data. Nothing is written back. Writes
// are enabled once Load returns; later calls do nothing.
func (c *Collection) Load(ctx context.Context) {
	c.mu.Lock()
	if c.state != statePending {
		c.mu.Unlock()
		return
	}
	c.state = stateRestoring
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = stateActive
		c.mu.Unlock()
	}()

	payload, err := c.storage.Get(ctx, c.key)
	switch {
	case kv.IsNotFound(err):
		c.log.Debug().Str("key", c.key).Msg("nothing persisted, keeping seed")
		return
	case err != nil:
		c.log.Warn().Err(err).Str("key", c.key).Msg("read persisted todos")
		return
	}

	if err := c.Restore([]byte(payload)); err != nil {
		c.log.Warn().Err(err).Str("key", c.key).Msg("restore persisted todos, keeping current")
		return
	}

	c.mu.Lock()
	c.synced = payload
	c.mu.Unlock()
}

// Watch restores payloads written to the collection's key by other
// processes until ctx is done or events closes. Deletions are ignored and
// the in-memory list stays as it is.
func (c *Collection) Watch(ctx context.Context, events <-chan kv.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			c.handleEvent(event)
		}
	}
}

func (c *Collection) handleEvent(event kv.Event) {
	if event.Key != c.key {
		return
	}
	if event.Deleted {
		c.log.Debug().Str("key", c.key).Msg("persisted todos removed externally, keeping current")
		return
	}

	c.mu.Lock()
	echo := c.synced == event.Value
	c.mu.Unlock()
	if echo {
		return
	}

	if err := c.Restore([]byte(event.Value)); err != nil {
		c.log.Warn().Err(err).Str("key", c.key).Msg("restore external todos, keeping current")
		return
	}

	c.mu.Lock()
	c.synced = event.Value
	c.mu.Unlock()
}

// Restore replaces the collection with the valid records of an untrusted
// payload. Invalid records are dropped; a payload that is not a JSON array
// leaves the collection unchanged and returns the error. Restore never
// writes to storage.
func (c *Collection) Restore(payload []byte) error {
	items, err := todo.ParseStored(payload, func(index int, err error) {
		c.log.Debug().Err(err).Int("index", index).Msg("dropping invalid stored todo")
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.items = items
	c.version++
	ch := change{items: slices.Clone(c.items), version: c.version}
	c.mu.Unlock()

	c.notify(ch)
	return nil
}

// Create assigns a fresh id to in, prepends the record and persists. No
// validation happens here; callers validate drafts first.
func (c *Collection) Create(ctx context.Context, in todo.Input) todo.Item {
	c.mu.Lock()
	item := in.WithID(c.uniqueID())
	c.items = slices.Insert(c.items, 0, item)
	ch := c.commit(ctx)
	c.mu.Unlock()

	c.notify(ch)
	return item
}

// Update replaces the record with the same id in place. It reports false
// and changes nothing when the id is absent.
func (c *Collection) Update(ctx context.Context, item todo.Item) bool {
	c.mu.Lock()
	i := c.indexOf(item.ID)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	c.items[i] = item
	ch := c.commit(ctx)
	c.mu.Unlock()

	c.notify(ch)
	return true
}

// Delete removes the record with id. It reports false when absent.
func (c *Collection) Delete(ctx context.Context, id string) bool {
	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	ch := c.commit(ctx)
	c.mu.Unlock()

	c.notify(ch)
	return true
}

// Replace swaps the whole collection for items and persists it. Records
// repeating an earlier id are dropped.
func (c *Collection) Replace(ctx context.Context, items []todo.Item) {
	seen := make(map[string]bool, len(items))
	kept := make([]todo.Item, 0, len(items))
	for _, item := range items {
		if seen[item.ID] {
			c.log.Debug().Str("id", item.ID).Msg("dropping duplicate id")
			continue
		}
		seen[item.ID] = true
		kept = append(kept, item)
	}

	c.mu.Lock()
	c.items = kept
	ch := c.commit(ctx)
	c.mu.Unlock()

	c.notify(ch)
}

// Items returns a copy of the collection in store order.
func (c *Collection) Items() []todo.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Get returns the record with id.
func (c *Collection) Get(id string) (todo.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return todo.Item{}, false
	}
	return c.items[i], true
}

// Len returns the number of records.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Version increments on every change, letting callers cache derived views.
func (c *Collection) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Subscribe registers fn to receive the collection after every change.
// fn runs on the goroutine that made the change. It must not block or change
// the collection. Deliveries never go backwards: a snapshot older than one
// already delivered is skipped.
func (c *Collection) Subscribe(fn func([]todo.Item)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// commit records a change and writes the collection through when the
// persistence guard allows it. Callers hold c.mu.
//
// The write happens under c.mu so the stored payload always follows the
// in-memory order of changes. Readers wait for the write; with a remote
// backend that is one round trip per mutation.
func (c *Collection) commit(ctx context.Context) change {
	c.version++
	ch := change{items: slices.Clone(c.items), version: c.version}

	if c.state != stateActive {
		c.log.Debug().Stringer("state", c.state).Msg("write suppressed")
		return ch
	}

	payload, err := todo.Marshal(ch.items)
	if err != nil {
		c.log.Warn().Err(err).Msg("serialize todos")
		return ch
	}
	if err := c.storage.Set(ctx, c.key, string(payload)); err != nil {
		c.log.Warn().Ctx(ctx).Err(err).Str("key", c.key).Msg("persist todos")
		return ch
	}
	c.synced = string(payload)
	return ch
}

// notify delivers ch to subscribers. Changes race to here after releasing
// c.mu, so a snapshot that lost the race to a newer one is dropped.
func (c *Collection) notify(ch change) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if ch.version <= c.notified {
		return
	}
	c.notified = ch.version

	c.subMu.Lock()
	fns := make([]func([]todo.Item), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(slices.Clone(ch.items))
	}
}

// uniqueID draws ids until one is not in use. Callers hold c.mu.
func (c *Collection) uniqueID() string {
	for {
		id := c.newID()
		if c.indexOf(id) < 0 {
			return id
		}
		c.log.Debug().Str("id", id).Msg("id collision, drawing again")
	}
}

func (c *Collection) indexOf(id string) int {
	return slices.IndexFunc(c.items, func(item todo.Item) bool {
		return item.ID == id
	})
}

func (c *Collection) snapshot() ([]todo.Item, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items), c.version
}
