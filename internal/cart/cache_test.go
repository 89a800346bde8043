package cart

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	cart  Cart
	calls int
}

func (l *stubLoader) GetByOwner(ctx context.Context, owner Owner) (Cart, error) {
	l.calls++
	return l.cart, nil
}

func newTestCache(t *testing.T, loader SummaryLoader) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, loader, time.Minute)
}

func TestCacheGetLoadsOnMiss(t *testing.T) {
	loader := &stubLoader{cart: Cart{Lines: []Line{
		{VariantID: 1, Quantity: 2, Price: 10},
		{VariantID: 2, Quantity: 1, Price: 5},
	}}}
	cache := newTestCache(t, loader)
	ctx := context.Background()
	owner := GuestOwner("g1")

	summary, err := cache.Get(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Count)
	require.InDelta(t, 25.0, summary.Subtotal, 0.001)
	require.Equal(t, 1, loader.calls)

	// Second read is served from the mirror.
	_, err = cache.Get(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 1, loader.calls)
}

func TestCacheRefreshRecomputes(t *testing.T) {
	loader := &stubLoader{cart: Cart{Lines: []Line{{VariantID: 1, Quantity: 1, Price: 10}}}}
	cache := newTestCache(t, loader)
	ctx := context.Background()
	owner := UserOwner(42)

	_, err := cache.Get(ctx, owner)
	require.NoError(t, err)

	// The store changed; the mirror is stale until an explicit Refresh.
	loader.cart = Cart{Lines: []Line{{VariantID: 1, Quantity: 5, Price: 10}}}
	summary, err := cache.Get(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Count)

	require.NoError(t, cache.Refresh(ctx, owner))
	summary, err = cache.Get(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 5, summary.Count)
}

func TestCacheInvalidateForcesReload(t *testing.T) {
	loader := &stubLoader{cart: Cart{Lines: []Line{{VariantID: 1, Quantity: 2, Price: 10}}}}
	cache := newTestCache(t, loader)
	ctx := context.Background()
	owner := GuestOwner("g1")

	_, err := cache.Get(ctx, owner)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, owner))

	_, err = cache.Get(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 2, loader.calls)
}

func TestCacheKeysSeparateOwners(t *testing.T) {
	loader := &stubLoader{cart: Cart{Lines: []Line{{VariantID: 1, Quantity: 1, Price: 10}}}}
	cache := newTestCache(t, loader)
	ctx := context.Background()

	_, err := cache.Get(ctx, GuestOwner("abc"))
	require.NoError(t, err)
	_, err = cache.Get(ctx, UserOwner(1))
	require.NoError(t, err)
	require.Equal(t, 2, loader.calls)
}
