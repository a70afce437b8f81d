package repositories

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"animehub-client/internal/config"
	"animehub-client/internal/db"
)

// Open builds the state repository selected by cfg.StateDriver. The returned
// close function releases the underlying connection.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (StateRepository, func() error, error) {
	switch cfg.StateDriver {
	case "memory":
		return NewMemoryStateRepo(), func() error { return nil }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return NewRedisStateRepo(client), client.Close, nil
	case "sqlite", "postgres":
		conn, err := db.Connect(cfg.StateDriver, cfg.StateDSN, logger)
		if err != nil {
			return nil, nil, err
		}
		return NewStateRepo(conn), conn.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported state driver %q", cfg.StateDriver)
	}
}
