package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/TrackNotify/internal/models"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "")
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache_Ping(t *testing.T) {
	c, _ := newCache(t)
	require.NoError(t, c.Ping(context.Background()))
}

func TestRedisCache_Quote(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	_, ok, err := c.GetQuote(ctx, "NVDA")
	require.NoError(t, err)
	require.False(t, ok)

	price, prev := 120.5, 118.0
	require.NoError(t, c.SetQuote(ctx, models.Quote{Symbol: "nvda", LastPrice: &price, PreviousClose: &prev}, time.Minute))
	require.True(t, mr.Exists("tracknotify:quote:NVDA"))

	q, ok, err := c.GetQuote(ctx, "NVDA")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 120.5, *q.LastPrice)
	require.Equal(t, 118.0, *q.PreviousClose)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.GetQuote(ctx, "NVDA")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCache_QuoteNilPrices(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetQuote(ctx, models.Quote{Symbol: "XYZ"}, time.Minute))
	q, ok, err := c.GetQuote(ctx, "XYZ")
	require.NoError(t, err)
	require.True(t, ok)
	require.Nil(t, q.LastPrice)
	require.Nil(t, q.PreviousClose)
}

func TestRedisCache_AllowN(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	ok, n, err := c.AllowN(ctx, "17track", 30, 50, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(30), n)

	ok, n, err = c.AllowN(ctx, "17track", 20, 50, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(50), n)

	ok, n, _ = c.AllowN(ctx, "17track", 1, 50, time.Hour)
	require.False(t, ok)
	require.Equal(t, int64(51), n)
}

func TestRedisCache_Lock(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	l, ok, err := c.AcquireLock(ctx, "parcel-poll", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, l)

	_, ok, err = c.AcquireLock(ctx, "parcel-poll", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	// other jobs are independent
	other, ok, err := c.AcquireLock(ctx, "stock-report", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, l.Release(ctx))
	require.False(t, mr.Exists("tracknotify:lock:parcel-poll"))

	_, ok, err = c.AcquireLock(ctx, "parcel-poll", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisCache_LockReleaseKeepsForeignHolder(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	l, ok, err := c.AcquireLock(ctx, "parcel-report", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// lock expired and someone else took it
	mr.FastForward(2 * time.Second)
	_, ok, err = c.AcquireLock(ctx, "parcel-report", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Release(ctx))
	require.True(t, mr.Exists("tracknotify:lock:parcel-report"))
}
