package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Prefix 服务注册根路径：/services/<name>/<instance>
const Prefix = "/services/"

type Config struct {
	Endpoints []string
	TTL       int
}

type Client struct {
	*clientv3.Client
	ttl int64
}

func New(cfg Config) (*Client, error) {
	cli, err := clientv3.New(clientv3.Config{Endpoints: cfg.Endpoints, DialTimeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}
	ttl := int64(cfg.TTL)
	if ttl <= 0 {
		ttl = 10
	}
	return &Client{Client: cli, ttl: ttl}, nil
}

// Instance 注册值，供网关 / 运维脚本发现 API 实例
type Instance struct {
	ID        string `json:"id"`
	Addr      string `json:"addr"`
	Version   string `json:"version"`
	StartedAt int64  `json:"startedAt"`
}

func ServiceKey(service, instanceID string) string {
	return Prefix + strings.Trim(service, "/") + "/" + instanceID
}

func (i Instance) Encode() (string, error) {
	b, err := json.Marshal(i)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Registration 持有租约，Deregister 时主动撤销
type Registration struct {
	Key     string
	LeaseID clientv3.LeaseID
}

// Register 租约续期在后台进行，ctx 取消即停止续期
func (c *Client) Register(ctx context.Context, service string, inst Instance) (*Registration, error) {
	val, err := inst.Encode()
	if err != nil {
		return nil, err
	}
	lease, err := c.Client.Grant(ctx, c.ttl)
	if err != nil {
		return nil, fmt.Errorf("etcd grant: %w", err)
	}
	key := ServiceKey(service, inst.ID)
	if _, err = c.Client.Put(ctx, key, val, clientv3.WithLease(lease.ID)); err != nil {
		return nil, fmt.Errorf("etcd put %s: %w", key, err)
	}
	ch, err := c.Client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return nil, fmt.Errorf("etcd keepalive: %w", err)
	}
	go func() {
		for range ch {
		}
	}()
	return &Registration{Key: key, LeaseID: lease.ID}, nil
}

// Deregister key 可能已随租约过期，错误忽略
func (c *Client) Deregister(ctx context.Context, r *Registration) {
	if r == nil {
		return
	}
	_, _ = c.Client.Delete(ctx, r.Key)
	if r.LeaseID > 0 {
		_, _ = c.Client.Revoke(ctx, r.LeaseID)
	}
}

// Discover 列出某服务下全部实例，值无法解析的跳过
func (c *Client) Discover(ctx context.Context, service string) ([]Instance, error) {
	resp, err := c.Client.Get(ctx, ServiceKey(service, ""), clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}
	out := make([]Instance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var inst Instance
		if json.Unmarshal(kv.Value, &inst) == nil {
			out = append(out, inst)
		}
	}
	return out, nil
}

// Ping readiness 使用
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Client.Get(ctx, "health")
	return err
}

func (c *Client) Close() error { return c.Client.Close() }
