package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c := newClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { c.Close() })
	return c, mr
}

type storedSession struct {
	CartID string         `json:"cart_id"`
	Lines  map[string]int `json:"lines"`
}

func TestSessionRoundTrip(t *testing.T) {
	c, mr := setupClient(t)
	ctx := context.Background()

	in := storedSession{CartID: "cart-1", Lines: map[string]int{"1": 3}}
	require.NoError(t, c.SaveSession(ctx, "s-1", in, time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("session:s-1"))

	var out storedSession
	found, err := c.LoadSession(ctx, "s-1", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)

	require.NoError(t, c.DeleteSession(ctx, "s-1"))
	found, err = c.LoadSession(ctx, "s-1", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSessionExpires(t *testing.T) {
	c, mr := setupClient(t)
	ctx := context.Background()

	require.NoError(t, c.SaveSession(ctx, "s-1", storedSession{CartID: "x"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var out storedSession
	found, err := c.LoadSession(ctx, "s-1", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLockIsExclusive(t *testing.T) {
	c, _ := setupClient(t)
	ctx := context.Background()

	first, err := c.AcquireLock(ctx, "place:s-1", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := c.AcquireLock(ctx, "place:s-1", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, second)

	require.NoError(t, c.ReleaseLock(ctx, first))

	third, err := c.AcquireLock(ctx, "place:s-1", time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, third)
}

func TestReleaseExpiredLockLeavesNewHolder(t *testing.T) {
	c, mr := setupClient(t)
	ctx := context.Background()

	stale, err := c.AcquireLock(ctx, "place:s-1", time.Second)
	require.NoError(t, err)
	require.NotNil(t, stale)

	mr.FastForward(2 * time.Second)

	current, err := c.AcquireLock(ctx, "place:s-1", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, current)

	assert.ErrorIs(t, c.ReleaseLock(ctx, stale), ErrLockNotHeld)
	assert.True(t, mr.Exists("lock:place:s-1"))
}
