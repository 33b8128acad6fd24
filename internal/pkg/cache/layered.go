package cache

import (
	"context"
	"sync/atomic"
	"time"
)

// LayeredCache 进程内 L1 加 Redis L2。
// L2 命中回填 L1，回填 TTL 取 L2 剩余时间与 MaxL1TTL 的较小值。
// L2 出错计入 l2Errors 并按未命中处理，调用方永远拿不到缓存层错误。
type LayeredCache struct {
	L1       Cache
	L2       Cache
	MaxL1TTL time.Duration

	stats layerStats
}

type layerStats struct {
	hitsL1, hitsL2, miss, backfill, sets, dels, l2Errors atomic.Uint64
}

// LayeredMetrics /api/admin/cache/metrics 的返回体
type LayeredMetrics struct {
	HitsL1     uint64  `json:"hits_l1"`
	HitsL2     uint64  `json:"hits_l2"`
	Miss       uint64  `json:"miss"`
	SetOps     uint64  `json:"set_ops"`
	DelOps     uint64  `json:"del_ops"`
	BackfillL1 uint64  `json:"backfill_l1"`
	L2Errors   uint64  `json:"l2_errors"`
	HitRate    float64 `json:"hit_rate"`
}

func NewLayered(l1, l2 Cache) *LayeredCache {
	return &LayeredCache{L1: l1, L2: l2, MaxL1TTL: 30 * time.Second}
}

func (c *LayeredCache) l2err(err error) {
	if err != nil {
		c.stats.l2Errors.Add(1)
	}
}

func (c *LayeredCache) Get(ctx context.Context, key string) (string, error) {
	if c.L1 != nil {
		if v, _ := c.L1.Get(ctx, key); v != "" {
			c.stats.hitsL1.Add(1)
			return v, nil
		}
	}
	if c.L2 == nil {
		c.stats.miss.Add(1)
		return "", nil
	}
	v, err := c.L2.Get(ctx, key)
	c.l2err(err)
	if err != nil || v == "" {
		c.stats.miss.Add(1)
		return "", nil
	}
	c.stats.hitsL2.Add(1)
	if c.L1 != nil {
		_ = c.L1.SetEX(ctx, key, v, c.l1TTL(ctx, key, 0))
		c.stats.backfill.Add(1)
	}
	return v, nil
}

// l1TTL ttl>0 为写入路径，否则为回填路径，向 L2 询问剩余时间
func (c *LayeredCache) l1TTL(ctx context.Context, key string, ttl time.Duration) time.Duration {
	if ttl <= 0 {
		if tf, ok := c.L2.(TTLFetcher); ok {
			if d, ok := tf.RemainingTTL(ctx, key); ok {
				ttl = d
			}
		}
	}
	if c.MaxL1TTL > 0 && (ttl <= 0 || ttl > c.MaxL1TTL) {
		return c.MaxL1TTL
	}
	return ttl
}

func (c *LayeredCache) SetEX(ctx context.Context, key, val string, ttl time.Duration) error {
	c.stats.sets.Add(1)
	if c.L1 != nil {
		_ = c.L1.SetEX(ctx, key, val, c.l1TTL(ctx, key, ttl))
	}
	if c.L2 != nil {
		c.l2err(c.L2.SetEX(ctx, key, val, ttl))
	}
	return nil
}

// Del 先删 L2 再删 L1，避免并发读在两次删除之间把旧值回填进 L1
func (c *LayeredCache) Del(ctx context.Context, keys ...string) error {
	c.stats.dels.Add(1)
	if c.L2 != nil {
		c.l2err(c.L2.Del(ctx, keys...))
	}
	if c.L1 != nil {
		_ = c.L1.Del(ctx, keys...)
	}
	return nil
}

func (c *LayeredCache) SnapshotMetrics() LayeredMetrics {
	s := &c.stats
	m := LayeredMetrics{
		HitsL1:     s.hitsL1.Load(),
		HitsL2:     s.hitsL2.Load(),
		Miss:       s.miss.Load(),
		SetOps:     s.sets.Load(),
		DelOps:     s.dels.Load(),
		BackfillL1: s.backfill.Load(),
		L2Errors:   s.l2Errors.Load(),
	}
	if total := m.HitsL1 + m.HitsL2 + m.Miss; total > 0 {
		m.HitRate = float64(m.HitsL1+m.HitsL2) / float64(total)
	}
	return m
}

func (c *LayeredCache) ResetMetrics() {
	s := &c.stats
	for _, v := range []*atomic.Uint64{&s.hitsL1, &s.hitsL2, &s.miss, &s.backfill, &s.sets, &s.dels, &s.l2Errors} {
		v.Store(0)
	}
}
