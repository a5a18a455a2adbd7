package locker

import "context"

// Locker serializes critical sections that share a key. WithLock holds the
// lock for the duration of fn and releases it even when fn fails.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
