package redisrepo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(Config{Addr: mr.Addr(), DialTimeout: time.Second})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.SetTTL(ctx, "canteen:categories", "[]", time.Minute))
	v, ok, err := c.Lookup(ctx, "canteen:categories")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)

	d, ok, err := c.TTL(ctx, "canteen:categories")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, d)

	require.NoError(t, c.Del(ctx, "canteen:categories"))
	require.NoError(t, c.Del(ctx))
	_, ok, err = c.Lookup(ctx, "canteen:categories")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.TTL(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_ErrorsWhenDown(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(Config{Addr: mr.Addr(), DialTimeout: 100 * time.Millisecond})
	defer c.Close()
	mr.Close()
	ctx := context.Background()
	assert.Error(t, c.Ping(ctx))
	_, _, err := c.Lookup(ctx, "k")
	assert.Error(t, err)
}
