package locker

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	portlocker "github.com/envino/wine-api/internal/port/locker"
)

var _ portlocker.Locker = (*Locker)(nil)

// Locker implements port/locker.Locker with Postgres session advisory locks,
// so the critical section is serialized across every instance sharing the
// database. Lock and unlock run on the same acquired connection because
// pg_advisory_lock is session-level.
type Locker struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Locker {
	return &Locker{pool: pool}
}

func (l *Locker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection for advisory lock: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock(hashtextextended($1, 0))", key); err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}
	// Background context: unlock must run even if ctx was cancelled inside fn.
	defer conn.Exec(context.Background(), "SELECT pg_advisory_unlock(hashtextextended($1, 0))", key) //nolint:errcheck

	return fn(ctx)
}
