package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/neexbeast/weather-cache/internal/cache"
	"github.com/neexbeast/weather-cache/internal/config"
	"github.com/neexbeast/weather-cache/internal/forecast"
	"github.com/neexbeast/weather-cache/internal/mongodb"
	"github.com/neexbeast/weather-cache/internal/storage"
)

// cacheStore is what the service and the health check need from a backend.
type cacheStore interface {
	Lookup(ctx context.Context, city, country string) (*forecast.Document, error)
	Store(ctx context.Context, doc *forecast.Document) (string, error)
	Ping(ctx context.Context) error
}

// backend is an opened cache datastore plus its teardown.
type backend struct {
	store cacheStore
	close func()
}

// openBackend connects to the datastore named by cfg.Cache.Backend. When
// provision is set it also creates indexes or applies migrations.
func openBackend(ctx context.Context, cfg *config.Config, log *zap.Logger, provision bool) (*backend, error) {
	switch cfg.Cache.Backend {
	case config.BackendMongo:
		client, err := mongodb.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)

		if provision {
			if err := mongodb.EnsureIndexes(ctx, coll, cfg.Cache.TTL); err != nil {
				_ = client.Disconnect(context.Background())
				return nil, err
			}
			log.Info("mongodb indexes ensured",
				zap.String("collection", cfg.Mongo.Collection),
				zap.Duration("ttl", cfg.Cache.TTL))
		}

		return &backend{
			store: mongodb.NewStore(coll),
			close: func() { _ = client.Disconnect(context.Background()) },
		}, nil

	case config.BackendRedis:
		client, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		return &backend{
			store: cache.NewStore(client, cfg.Cache.TTL),
			close: func() { _ = client.Close() },
		}, nil

	case config.BackendPostgres:
		pool, err := storage.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}

		if provision {
			applied, err := storage.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir)
			if err != nil {
				pool.Close()
				return nil, fmt.Errorf("running migrations: %w", err)
			}
			log.Info("migrations applied", zap.Strings("files", applied))
		}

		return &backend{
			store: storage.NewRepository(pool),
			close: pool.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
}
