package ratelimit

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/rolodexhq/rolodex/internal/config"
)

const keyProfile = "ratelimit:profile:%d"

// ProfileLimiter throttles the profile endpoint per user. Without redis the
// limiter is disabled and every request passes.
type ProfileLimiter struct {
	bucket  *TokenBucket
	runtime *config.RuntimeConfigHolder
}

func NewProfileLimiter(client *redis.Client, runtime *config.RuntimeConfigHolder) *ProfileLimiter {
	if client == nil {
		return nil
	}
	return &ProfileLimiter{
		bucket:  NewTokenBucket(client),
		runtime: runtime,
	}
}

func (l *ProfileLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *ProfileLimiter) Allow(ctx context.Context, userID int64) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	cfg := l.runtime.Current()
	return l.bucket.Allow(ctx, fmt.Sprintf(keyProfile, userID), cfg.ProfileRateLimit, cfg.ProfileRateBurst)
}
