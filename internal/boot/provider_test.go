package boot

import (
	"context"
	"net"
	"testing"

	"go-canteenadmin/internal/config"
	"go-canteenadmin/internal/pkg/cache"
	redisrepo "go-canteenadmin/internal/repository/redis"
	"go-canteenadmin/internal/service"
	"go-canteenadmin/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviders_UnconfiguredComponentsAreNil(t *testing.T) {
	c := &config.Config{}
	assert.Nil(t, NewOpLogProducer(c))
	assert.Nil(t, NewEventProducer(c))
	assert.Nil(t, NewRedis(c, nil))
	e, err := NewEtcd(c)
	require.NoError(t, err)
	assert.Nil(t, e)

	assert.IsType(t, service.NopPublisher{}, ProvidePublisher(nil))
	assert.Nil(t, NewOpLogSender(nil, c, nil))
	// 必须是 nil 接口而不是装了 nil 指针的接口
	assert.True(t, ProvideOpLogQueue(nil) == nil)
}

func TestProvideCache(t *testing.T) {
	l1 := NewLocalCache()
	assert.IsType(t, &cache.SimpleCache{}, ProvideCache(l1, nil))

	mr := miniredis.RunT(t)
	r := redisrepo.New(redisrepo.Config{Addr: mr.Addr()})
	t.Cleanup(func() { _ = r.Close() })
	lc, ok := ProvideCache(l1, r).(*cache.LayeredCache)
	require.True(t, ok)

	ctx := context.Background()
	require.NoError(t, lc.SetEX(ctx, "k", "v", 0))
	v, _ := l1.Get(ctx, "k")
	assert.Equal(t, "v", v, "layered cache writes through the shared L1")
}

func TestProvideHealthChecker_OnlyDatabaseRequired(t *testing.T) {
	gw := testutil.NewGateway(t)
	mr := miniredis.RunT(t)
	r := redisrepo.New(redisrepo.Config{Addr: mr.Addr()})
	t.Cleanup(func() { _ = r.Close() })
	mr.Close()

	res, code := ProvideHealthChecker(gw.DB, r, nil, nil).Readiness(context.Background())
	assert.Equal(t, 200, code)
	require.Len(t, res.Detail, 2)
	assert.True(t, res.Detail[0].Up)
	assert.False(t, res.Detail[1].Up)
}

func TestAdvertiseAddr(t *testing.T) {
	assert.Equal(t, "10.0.0.5:8080", advertiseAddr("10.0.0.5:8080"))
	assert.Equal(t, "not-an-addr", advertiseAddr("not-an-addr"))

	host, port, err := net.SplitHostPort(advertiseAddr(":9090"))
	require.NoError(t, err)
	assert.Equal(t, "9090", port)
	assert.NotEmpty(t, host)
	assert.NotEqual(t, "0.0.0.0", host)
}
