package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	portidem "github.com/envino/wine-api/internal/port/idempotency"
)

var _ portidem.Store = (*Store)(nil)

const defaultKeyPrefix = "wine-api:idempotency:"

// Store keeps idempotency records in Redis so every instance behind a load
// balancer replays the same response.
type Store struct {
	client    *redis.Client
	keyPrefix string
}

// Connect dials Redis and verifies the connection with a PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}

func New(client *redis.Client, keyPrefix string) *Store {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &Store{client: client, keyPrefix: keyPrefix}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, portidem.ErrNotFound
		}
		return nil, fmt.Errorf("reading idempotency key: %w", err)
	}
	return val, nil
}

// SetIfAbsent uses SET NX so concurrent first requests cannot both win.
func (s *Store) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("storing idempotency key: %w", err)
	}
	return ok, nil
}
