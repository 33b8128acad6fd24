package cache

import (
	"context"
	"testing"
	"time"

	redisrepo "go-canteenadmin/internal/repository/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleCache_TTL(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)
	require.NoError(t, c.SetEX(ctx, "k", "v", 20*time.Millisecond))
	v, _ := c.Get(ctx, "k")
	assert.Equal(t, "v", v)

	d, ok := c.RemainingTTL(ctx, "k")
	assert.True(t, ok)
	assert.LessOrEqual(t, d, 20*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	v, _ = c.Get(ctx, "k")
	assert.Empty(t, v)
	assert.Equal(t, 0, c.Len())

	require.NoError(t, c.SetEX(ctx, "a", "1", 0))
	_, ok = c.RemainingTTL(ctx, "a")
	assert.True(t, ok, "zero ttl falls back to default")
	require.NoError(t, c.Del(ctx, "a"))
	v, _ = c.Get(ctx, "a")
	assert.Empty(t, v)
}

func TestSimpleCache_Sweep(t *testing.T) {
	ctx := context.Background()
	c := New(0)
	_ = c.SetEX(ctx, "old", "x", time.Millisecond)
	_ = c.SetEX(ctx, "forever", "y", 0)
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *RedisAdapter) {
	t.Helper()
	mr := miniredis.RunT(t)
	cli := redisrepo.New(redisrepo.Config{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cli.Close() })
	return mr, NewRedisAdapter(cli)
}

func TestLayeredCache_BackfillFromRedis(t *testing.T) {
	ctx := context.Background()
	mr, l2 := newRedis(t)
	l1 := New(time.Minute)
	c := NewLayered(l1, l2)

	require.NoError(t, mr.Set("menu", "json"))
	mr.SetTTL("menu", 10*time.Second)

	v, err := c.Get(ctx, "menu")
	require.NoError(t, err)
	assert.Equal(t, "json", v)
	d, ok := l1.RemainingTTL(ctx, "menu")
	require.True(t, ok)
	assert.LessOrEqual(t, d, 10*time.Second)

	v, _ = c.Get(ctx, "menu")
	assert.Equal(t, "json", v)
	m := c.SnapshotMetrics()
	assert.EqualValues(t, 1, m.HitsL1)
	assert.EqualValues(t, 1, m.HitsL2)
	assert.EqualValues(t, 1, m.BackfillL1)
}

func TestLayeredCache_SetAndDelBothLayers(t *testing.T) {
	ctx := context.Background()
	mr, l2 := newRedis(t)
	l1 := New(time.Minute)
	c := NewLayered(l1, l2)

	require.NoError(t, c.SetEX(ctx, "k", "v", 5*time.Minute))
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.Equal(t, 5*time.Minute, mr.TTL("k"))
	d, _ := l1.RemainingTTL(ctx, "k")
	assert.LessOrEqual(t, d, c.MaxL1TTL)

	require.NoError(t, c.Del(ctx, "k"))
	assert.False(t, mr.Exists("k"))
	v, _ := c.Get(ctx, "k")
	assert.Empty(t, v)
	assert.EqualValues(t, 1, c.SnapshotMetrics().Miss)
}

func TestLayeredCache_RedisDownIsMiss(t *testing.T) {
	ctx := context.Background()
	mr, l2 := newRedis(t)
	c := NewLayered(nil, l2)
	mr.Close()

	v, err := c.Get(ctx, "any")
	require.NoError(t, err)
	assert.Empty(t, v)
	assert.NoError(t, c.SetEX(ctx, "any", "v", time.Second))
	assert.NoError(t, c.Del(ctx, "any"))
	m := c.SnapshotMetrics()
	assert.EqualValues(t, 3, m.L2Errors)
	assert.EqualValues(t, 1, m.Miss)

	c.ResetMetrics()
	assert.Zero(t, c.SnapshotMetrics().L2Errors)
}
