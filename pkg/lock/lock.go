package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired means the resource is currently held by another owner.
// Callers should treat it as retryable contention, not a hard failure.
var ErrNotAcquired = errors.New("lock not acquired")

// ResourceLock provides per-resource mutual exclusion for booking attempts.
// Acquire returns an owner token; Release is a no-op unless the token still
// owns the key, so a holder that outlived its TTL can never release a lock
// re-acquired by someone else.
type ResourceLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error)
	Release(ctx context.Context, key string, token string) error
}
