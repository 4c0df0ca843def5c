package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisStore struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisStore wraps a redis client in the Store contract. Returns nil when
// the client is nil so callers keep a single "cache disabled" representation.
func NewRedisStore(client *redis.Client, log *zap.Logger) Store {
	if client == nil {
		return nil
	}
	return &redisStore{
		client: client,
		log:    log.Named("cache"),
	}
}

func (s *redisStore) GetJSON(ctx context.Context, key string) ([]byte, bool) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		s.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return data, true
}

func (s *redisStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) bool {
	data, err := json.Marshal(value)
	if err != nil {
		s.log.Warn("cache value not serializable", zap.String("key", key), zap.Error(err))
		return false
	}

	if ttl > 0 {
		err = s.client.SetEx(ctx, key, data, ttl).Err()
	} else {
		err = s.client.Set(ctx, key, data, 0).Err()
	}
	if err != nil {
		s.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *redisStore) Delete(ctx context.Context, key string) bool {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.log.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *redisStore) Exists(ctx context.Context, key string) bool {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		s.log.Warn("cache exists failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return n > 0
}
