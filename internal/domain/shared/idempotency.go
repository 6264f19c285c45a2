package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys that were already handled
type IdempotencyStore interface {
	// MarkProcessed records key with a TTL. It returns true when the key was
	// not seen before and false when it was already recorded.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether key has been recorded and not yet expired
	IsProcessed(ctx context.Context, key string) (bool, error)

	Close() error
}

// IdempotencyConfig controls duplicate suppression for event handlers
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig keeps keys for a day
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
