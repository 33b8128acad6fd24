package redisrepo

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	Instrumented bool
}

// Client 缓存 L2 与健康检查共用
type Client struct{ *redis.Client }

func New(cfg Config) *Client {
	opts := &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
		opts.WriteTimeout = cfg.ReadTimeout
	}
	rdb := redis.NewClient(opts)
	if cfg.Instrumented {
		_ = redisotel.InstrumentTracing(rdb)
	}
	return &Client{rdb}
}

func (c *Client) Ping(ctx context.Context) error { return c.Client.Ping(ctx).Err() }

func (c *Client) Close() error { return c.Client.Close() }

func (c *Client) SetTTL(ctx context.Context, key string, val string, ttl time.Duration) error {
	return c.Client.Set(ctx, key, val, ttl).Err()
}

// Lookup 不存在返回 ("", false, nil)；连接类错误原样返回，由调用方决定是否降级
func (c *Client) Lookup(ctx context.Context, key string) (string, bool, error) {
	res, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return res, true, nil
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.Client.Del(ctx, keys...).Err()
}

// TTL 无过期时间或 key 不存在时 ok=false
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	d, err := c.Client.TTL(ctx, key).Result()
	if err != nil {
		return 0, false, err
	}
	return d, d > 0, nil
}
