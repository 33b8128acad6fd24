package cache

import (
	"context"
	"time"

	redisrepo "go-canteenadmin/internal/repository/redis"
)

// RedisAdapter 把 redis 客户端适配为 Cache（L2），错误原样上抛
type RedisAdapter struct{ c *redisrepo.Client }

func NewRedisAdapter(c *redisrepo.Client) *RedisAdapter { return &RedisAdapter{c: c} }

func (r *RedisAdapter) Get(ctx context.Context, key string) (string, error) {
	v, _, err := r.c.Lookup(ctx, key)
	return v, err
}

func (r *RedisAdapter) SetEX(ctx context.Context, key, val string, ttl time.Duration) error {
	return r.c.SetTTL(ctx, key, val, ttl)
}

func (r *RedisAdapter) Del(ctx context.Context, keys ...string) error {
	return r.c.Del(ctx, keys...)
}

func (r *RedisAdapter) RemainingTTL(ctx context.Context, key string) (time.Duration, bool) {
	d, ok, err := r.c.TTL(ctx, key)
	if err != nil {
		return 0, false
	}
	return d, ok
}
