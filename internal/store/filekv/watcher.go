package filekv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/colonyops/todo/internal/core/kv"
)

const (
	debounceDelay   = 50 * time.Millisecond
	eventBufferSize = 100
)

// Watcher reports changes to value files, including those written by other
// processes sharing the directory.
type Watcher struct {
	dir     string
	watcher *fsnotify.Watcher
	log     zerolog.Logger

	mu          sync.Mutex
	subscribers map[string][]chan kv.Event // pattern -> channels
	debounce    map[string]*time.Timer     // key -> debounce timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ kv.Watcher = (*Watcher)(nil)

// NewWatcher watches dir. The directory is created if it doesn't exist.
func NewWatcher(dir string, log zerolog.Logger) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		dir:         dir,
		watcher:     watcher,
		log:         log.With().Str("component", "filekv-watcher").Logger(),
		subscribers: make(map[string][]chan kv.Event),
		debounce:    make(map[string]*time.Timer),
		ctx:         ctx,
		cancel:      cancel,
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Watch returns a channel receiving events for keys matching pattern, a
// doublestar glob such as "todo-theme" or "todo-revamped::*". An empty
// pattern matches every key. The channel closes when ctx is done or the
// watcher closes.
func (w *Watcher) Watch(ctx context.Context, pattern string) (<-chan kv.Event, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid key pattern %q", pattern)
	}

	ch := make(chan kv.Event, eventBufferSize)

	w.mu.Lock()
	select {
	case <-w.ctx.Done():
		w.mu.Unlock()
		close(ch)
		return ch, nil
	default:
	}
	w.subscribers[pattern] = append(w.subscribers[pattern], ch)
	w.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			w.unsubscribe(pattern, ch)
		case <-w.ctx.Done():
			// Close() closes the channel.
		}
	}()

	return ch, nil
}

// Close stops watching and closes all subscriber channels.
func (w *Watcher) Close() error {
	w.cancel()

	w.mu.Lock()
	for _, timer := range w.debounce {
		timer.Stop()
	}
	for _, subs := range w.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	w.subscribers = make(map[string][]chan kv.Event)
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) unsubscribe(pattern string, ch chan kv.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	subs := w.subscribers[pattern]
	for i, sub := range subs {
		if sub == ch {
			w.subscribers[pattern] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(w.subscribers[pattern]) == 0 {
		delete(w.subscribers, pattern)
	}
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("fsnotify error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}

	key, ok := KeyFromFilename(filepath.Base(event.Name))
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ctx.Err() != nil {
		return
	}
	if timer, exists := w.debounce[key]; exists {
		timer.Stop()
	}
	w.debounce[key] = time.AfterFunc(debounceDelay, func() {
		w.notify(key)
	})
}

// notify reads the settled value of key and fans it out to matching
// subscribers. A missing file is reported as a deletion.
func (w *Watcher) notify(key string) {
	event := kv.Event{Key: key}
	data, err := os.ReadFile(filepath.Join(w.dir, Filename(key)))
	switch {
	case errors.Is(err, os.ErrNotExist):
		event.Deleted = true
	case err != nil:
		w.log.Warn().Err(err).Str("key", key).Msg("read changed key")
		return
	default:
		event.Value = string(data)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.debounce, key)
	if w.ctx.Err() != nil {
		return
	}

	for pattern, subs := range w.subscribers {
		if !matchesPattern(pattern, key) {
			continue
		}
		for _, ch := range subs {
			select {
			case ch <- event:
			default:
				w.log.Debug().Str("key", key).Msg("subscriber full, dropping event")
			}
		}
	}
}

func matchesPattern(pattern, key string) bool {
	if pattern == "" {
		return true
	}
	ok, err := doublestar.Match(pattern, key)
	return err == nil && ok
}
