package cache

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rolodexhq/rolodex/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewClient dials Redis from config. A missing address or a failed ping
// yields a nil client: the service runs with caching disabled.
func NewClient(cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Info("redis not configured, caching disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, caching disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = client.Close()
		return nil
	}

	log.Info("redis connected", zap.String("addr", cfg.RedisAddr))
	return client
}

func registerHooks(lc fx.Lifecycle, client *redis.Client) {
	if client == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
}

var Module = fx.Module("cache",
	fx.Provide(
		NewClient,
		NewRedisStore,
	),
	fx.Invoke(registerHooks),
)
