package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/envino/wine-api/internal/domain/event"
	porteventbus "github.com/envino/wine-api/internal/port/eventbus"
)

var _ porteventbus.EventBus = (*EventBus)(nil)

const retryDelay = time.Second

// EventBus implements port/eventbus.EventBus with Postgres LISTEN/NOTIFY so
// every instance sharing the database sees every event.
type EventBus struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(pool *pgxpool.Pool, log *zap.Logger) *EventBus {
	return &EventBus{pool: pool, log: log}
}

// Publish sends e with NOTIFY on the channel for its type.
func (eb *EventBus) Publish(ctx context.Context, e event.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	channel := channelName(event.ChannelFor(e.Type))
	if _, err := eb.pool.Exec(ctx, "SELECT pg_notify($1, $2)", channel, string(payload)); err != nil {
		return fmt.Errorf("publishing event on channel %s: %w", channel, err)
	}
	return nil
}

// Subscribe holds one pooled connection LISTENing on ch and calls handler for
// every notification until ctx is cancelled or Unsubscribe is called. A lost
// connection is replaced and LISTEN re-issued.
func (eb *EventBus) Subscribe(ctx context.Context, ch event.Channel, handler porteventbus.Handler) (porteventbus.Subscription, error) {
	channel := channelName(ch)
	conn, err := eb.listen(ctx, channel)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{cancel: cancel, done: make(chan struct{})}
	log := eb.log.With(zap.String("channel", channel))

	go func() {
		defer func() {
			if conn != nil {
				conn.Exec(context.Background(), "UNLISTEN "+channel) //nolint:errcheck
				conn.Release()
			}
			close(sub.done)
		}()

		for {
			if conn == nil {
				select {
				case <-subCtx.Done():
					return
				case <-time.After(retryDelay):
				}
				c, err := eb.listen(subCtx, channel)
				if err != nil {
					if subCtx.Err() != nil {
						return
					}
					log.Warn("re-establishing LISTEN failed", zap.Error(err))
					continue
				}
				conn = c
				log.Info("LISTEN re-established")
			}

			notification, err := conn.Conn().WaitForNotification(subCtx)
			if err != nil {
				if subCtx.Err() != nil {
					return
				}
				log.Warn("waiting for notification failed, reconnecting", zap.Error(err))
				// Take the connection out of the pool so a half-alive session
				// still LISTENing is never handed to another caller.
				_ = conn.Hijack().Close(context.Background())
				conn = nil
				continue
			}

			var e event.Event
			if err := json.Unmarshal([]byte(notification.Payload), &e); err != nil {
				log.Warn("dropping undecodable event", zap.Error(err))
				continue
			}

			handler(subCtx, e)
		}
	}()

	return sub, nil
}

// listen acquires a connection and issues LISTEN on channel.
func (eb *EventBus) listen(ctx context.Context, channel string) (*pgxpool.Conn, error) {
	conn, err := eb.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection for LISTEN: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("executing LISTEN on channel %s: %w", channel, err)
	}
	return conn, nil
}

// channelName converts a domain Channel to a Postgres channel identifier.
func channelName(ch event.Channel) string {
	return "wine_api_" + string(ch)
}

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *subscription) Unsubscribe() {
	s.cancel()
	<-s.done
}
