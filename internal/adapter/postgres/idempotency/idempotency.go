package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	portidem "github.com/envino/wine-api/internal/port/idempotency"
)

var _ portidem.Store = (*Repository)(nil)

// Repository implements port/idempotency.Store on the processed_requests table.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns the stored response for key. Expired rows are treated as absent.
func (r *Repository) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT response FROM processed_requests WHERE idempotency_key = $1 AND expires_at > NOW()`

	var result []byte
	err := r.pool.QueryRow(ctx, query, key).Scan(&result)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, portidem.ErrNotFound
		}
		return nil, fmt.Errorf("checking idempotency key: %w", err)
	}
	return result, nil
}

// SetIfAbsent records a response. An expired row with the same key is replaced.
func (r *Repository) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	query := `
		INSERT INTO processed_requests (idempotency_key, response, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (idempotency_key) DO UPDATE
			SET response = EXCLUDED.response, expires_at = EXCLUDED.expires_at
			WHERE processed_requests.expires_at <= NOW()`

	tag, err := r.pool.Exec(ctx, query, key, value, time.Now().Add(ttl).UTC())
	if err != nil {
		return false, fmt.Errorf("storing idempotency key: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
