// Package cache provides the best-effort Redis key/value layer that fronts
// the user store and tracks password-reset token identifiers.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Store is the cache port. Implementations are best-effort: connectivity
// failures are logged and reported as a miss or no-op, never as an error the
// caller must handle. A nil Store means caching is disabled.
type Store interface {
	// GetJSON returns the raw JSON stored under key, or ok=false on miss.
	GetJSON(ctx context.Context, key string) ([]byte, bool)
	// SetJSON marshals value and stores it under key. A ttl <= 0 stores
	// without expiry. Returns false when the write did not happen.
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) bool
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) bool
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) bool
}

// UserKey derives the cache key for a user profile snapshot.
func UserKey(id int64) string {
	return fmt.Sprintf("user:%d", id)
}

// ResetKey derives the cache key tracking a password-reset token identifier.
func ResetKey(jti string) string {
	return fmt.Sprintf("reset:%s", jti)
}
