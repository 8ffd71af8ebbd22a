package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"portfolio-client/internal/config"
	"portfolio-client/internal/db"
	"portfolio-client/internal/session/repository"
)

const backendPingTimeout = 5 * time.Second

// OpenRepository returns the session backend selected by cfg.SessionBackend and a
// function releasing its connections.
func OpenRepository(ctx context.Context, cfg *config.Config) (repository.Repository, func() error, error) {
	noop := func() error { return nil }
	switch cfg.SessionBackend {
	case config.BackendMemory:
		return repository.NewMemoryRepository(), noop, nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, backendPingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis session backend: %w", err)
		}
		return repository.NewRedisRepository(client, ""), client.Close, nil
	case config.BackendPostgres:
		sqlDB, err := db.OpenContext(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres session backend: %w", err)
		}
		return repository.NewPostgresRepository(sqlDB, ""), sqlDB.Close, nil
	case config.BackendFile, "":
		return repository.NewOSFileRepository(cfg.SessionDir), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}
