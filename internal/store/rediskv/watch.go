package rediskv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/todo/internal/core/kv"
)

const eventBufferSize = 100

var _ kv.Watcher = (*Store)(nil)

// message is the pub/sub payload announcing a change.
type message struct {
	Key     string `json:"key"`
	Value   string `json:"value,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

// EventsChannel is the pub/sub channel Set and Delete announce changes on.
func (s *Store) EventsChannel() string {
	return s.prefix + "events"
}

// publish queues the change announcement on pipe.
func (s *Store) publish(ctx context.Context, pipe redis.Pipeliner, msg message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	pipe.Publish(ctx, s.EventsChannel(), payload)
	return nil
}

// Watch subscribes to changes for keys matching pattern, including the
// caller's own writes. The channel closes when ctx is done.
func (s *Store) Watch(ctx context.Context, pattern string) (<-chan kv.Event, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	sub := s.client.Subscribe(ctx, s.EventsChannel())
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan kv.Event, eventBufferSize)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}

				var msg message
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					log.Debug().Err(err).Str("channel", m.Channel).Msg("ignoring malformed event")
					continue
				}
				if pattern != "" {
					if ok, _ := doublestar.Match(pattern, msg.Key); !ok {
						continue
					}
				}

				select {
				case out <- kv.Event{Key: msg.Key, Value: msg.Value, Deleted: msg.Deleted}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
