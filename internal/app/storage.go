package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/colonyops/todo/internal/core/config"
	"github.com/colonyops/todo/internal/core/kv"
	"github.com/colonyops/todo/internal/data/db"
	"github.com/colonyops/todo/internal/data/stores"
	"github.com/colonyops/todo/internal/store/filekv"
	"github.com/colonyops/todo/internal/store/memkv"
	"github.com/colonyops/todo/internal/store/rediskv"
)

type backend struct {
	storage kv.KV
	// watcher starts change notifications on demand; nil when the backend
	// has none.
	watcher func(zerolog.Logger) (kv.Watcher, func() error, error)
	closers []func() error
}

func openBackend(ctx context.Context, cfg *config.Config, name string, log zerolog.Logger) (backend, error) {
	switch name {
	case config.BackendFile:
		dir := cfg.StorageDir()
		store, err := filekv.New(dir)
		if err != nil {
			return backend{}, err
		}
		return backend{
			storage: store,
			watcher: func(log zerolog.Logger) (kv.Watcher, func() error, error) {
				w, err := filekv.NewWatcher(dir, log)
				if err != nil {
					return nil, nil, err
				}
				return w, w.Close, nil
			},
		}, nil

	case config.BackendSQLite:
		opts := db.OpenOptions{
			MaxOpenConns: cfg.Storage.Database.MaxOpenConns,
			MaxIdleConns: cfg.Storage.Database.MaxIdleConns,
			BusyTimeout:  cfg.Storage.Database.BusyTimeout,
		}
		database, err := db.Open(cfg.DataDir, opts)
		if err != nil && stores.IsCorruptionError(err) {
			// the damaged file is kept next to the new one
			log.Warn().Err(err).Msg("database corrupt, starting a fresh one")
			if rerr := stores.RecoverFromCorruption(cfg.DataDir); rerr != nil {
				return backend{}, errors.Join(err, rerr)
			}
			database, err = db.Open(cfg.DataDir, opts)
		}
		if err != nil {
			return backend{}, err
		}
		return backend{
			storage: stores.NewKVStore(database),
			closers: []func() error{database.Close},
		}, nil

	case config.BackendRedis:
		rc := cfg.Storage.Redis
		client := redis.NewClient(&redis.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})
		store := rediskv.New(client, rc.Prefix)
		if err := store.Ping(ctx); err != nil {
			_ = client.Close()
			return backend{}, err
		}
		return backend{
			storage: store,
			watcher: func(zerolog.Logger) (kv.Watcher, func() error, error) {
				return store, nil, nil
			},
			closers: []func() error{client.Close},
		}, nil

	case config.BackendMemory:
		return backend{storage: memkv.New()}, nil
	}

	return backend{}, fmt.Errorf("unknown backend %q", name)
}
