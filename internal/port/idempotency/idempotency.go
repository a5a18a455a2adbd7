package idempotency

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("idempotency: key not found")

// Store keeps serialized responses keyed by the client's Idempotency-Key.
type Store interface {
	// Get returns ErrNotFound when the key is unknown or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// SetIfAbsent stores value unless the key already exists. It reports
	// whether the value was written.
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}
