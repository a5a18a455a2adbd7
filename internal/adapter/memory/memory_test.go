package memory

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envino/wine-api/internal/domain/event"
	domainwinery "github.com/envino/wine-api/internal/domain/winery"
	portidem "github.com/envino/wine-api/internal/port/idempotency"
)

func TestWineryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewWineryRepository()

	w := domainwinery.New("Betz Family Winery")
	created, err := repo.Create(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, w, created)

	got, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w, got)

	exists, err := repo.ExistsByName(ctx, "  betz family WINERY ")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.Create(ctx, domainwinery.New("BETZ FAMILY WINERY"))
	assert.ErrorIs(t, err, domainwinery.ErrAlreadyExists)

	_, err = repo.GetByID(ctx, domainwinery.NewID())
	assert.ErrorIs(t, err, domainwinery.ErrNotFound)
}

func TestCache(t *testing.T) {
	ctx := context.Background()
	c := NewCache()
	now := time.Now()
	c.now = func() time.Time { return now }

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, portidem.ErrNotFound)

	ok, err := c.SetIfAbsent(ctx, "k", []byte("v1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetIfAbsent(ctx, "k", []byte("v2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, portidem.ErrNotFound)

	ok, err = c.SetIfAbsent(ctx, "k", []byte("v3"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired entries can be replaced")
}

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())

	var got atomic.Int32
	sub, err := bus.Subscribe(ctx, event.ChannelWinery, func(_ context.Context, e event.Event) {
		if e.Type == event.TypeWineryCreated {
			got.Add(1)
		}
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), event.New(event.TypeWineryCreated, "ry_1")))
	assert.Equal(t, int32(1), got.Load())

	sub.Unsubscribe()
	sub.Unsubscribe()
	require.NoError(t, bus.Publish(context.Background(), event.New(event.TypeWineryCreated, "ry_2")))
	assert.Equal(t, int32(1), got.Load())

	// Cancelling the context also drops the subscription.
	_, err = bus.Subscribe(ctx, event.ChannelWinery, func(context.Context, event.Event) { got.Add(1) })
	require.NoError(t, err)
	cancel()
	assert.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.subs[event.ChannelWinery]) == 0
	}, time.Second, 10*time.Millisecond)
}
