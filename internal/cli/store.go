package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/branchtale/internal/config"
	"github.com/aretw0/branchtale/pkg/adapters/file"
	"github.com/aretw0/branchtale/pkg/adapters/memory"
	"github.com/aretw0/branchtale/pkg/adapters/redis"
	"github.com/aretw0/branchtale/pkg/adapters/sqlite"
	"github.com/aretw0/branchtale/pkg/persistence/middleware"
	"github.com/aretw0/branchtale/pkg/ports"
)

// OpenStore builds the transcript archive selected by cfg.Store, wrapped with
// redaction and encryption when configured.
// The returned close function must be called once the store is no longer used.
func OpenStore(cfg config.Config) (ports.TranscriptStore, func() error, error) {
	mws, err := storeMiddleware(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, closeFn, err := openBackend(cfg)
	if err != nil {
		return nil, nil, err
	}
	return middleware.Chain(store, mws...), closeFn, nil
}

func storeMiddleware(cfg config.Config) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.RedactPatterns) > 0 {
		mw, err := middleware.NewRedactMiddleware(cfg.RedactPatterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	active, fallback, err := cfg.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

func openBackend(cfg config.Config) (ports.TranscriptStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store {
	case config.StoreMemory, "":
		return memory.NewStore(), noop, nil

	case config.StoreFile:
		return file.NewStore(cfg.FileDir), noop, nil

	case config.StoreRedis:
		var opts []redis.Option
		if cfg.RedisTTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.RedisTTL))
		}
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		return store, store.Close, nil

	case config.StoreSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}
