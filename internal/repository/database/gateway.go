package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go-canteenadmin/internal/metrics"
	"go-canteenadmin/internal/query"

	"gorm.io/gorm"
)

// DefaultOpTimeout 调用方 ctx 没有 deadline 时，单次操作（含取连接）的上限
const DefaultOpTimeout = 5 * time.Second

// Gateway 持久化网关：显式构造、注入到各 DAO，不存在全局连接池。
// 每次操作都在有界 ctx 下取连接、执行、归还；超时统一报 ErrTimeout。
type Gateway struct {
	DB        *gorm.DB
	dialect   query.Dialect
	opTimeout time.Duration
}

func NewGateway(db *gorm.DB, opTimeout time.Duration) *Gateway {
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	return &Gateway{DB: db, dialect: query.DialectOf(db.Dialector.Name()), opTimeout: opTimeout}
}

func (g *Gateway) Dialect() query.Dialect { return g.dialect }

func (g *Gateway) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.opTimeout)
}

// Run 单语句或多条互不依赖的语句
func (g *Gateway) Run(ctx context.Context, op string, fn func(db *gorm.DB) error) error {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	start := time.Now()
	err := fn(g.DB.WithContext(ctx))
	metrics.DBOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return classify(ctx, err)
}

// Transaction 任一步失败整体回滚，只在 fn 返回 nil 时提交
func (g *Gateway) Transaction(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	start := time.Now()
	err := g.DB.WithContext(ctx).Transaction(fn)
	metrics.DBOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return classify(ctx, err)
}

// ReadSnapshot 在只读事务里执行 count + data，两次读取看到同一份快照。
// MySQL InnoDB REPEATABLE READ 的快照建立于第一次一致性读（即 count），
// PostgreSQL 同级别建立于第一条语句；SQLite 事务本身串行，不传隔离级别。
func (g *Gateway) ReadSnapshot(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	start := time.Now()
	var err error
	if opts := g.snapshotOptions(); opts != nil {
		err = g.DB.WithContext(ctx).Transaction(fn, opts)
	} else {
		err = g.DB.WithContext(ctx).Transaction(fn)
	}
	metrics.DBOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return classify(ctx, err)
}

func (g *Gateway) snapshotOptions() *sql.TxOptions {
	switch g.dialect {
	case query.MySQL, query.Postgres:
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return nil
}

func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

// Scope 让 DAO 既能挂在 Gateway 上独立执行，也能绑定到外层事务（WithTx 模式）
type Scope struct {
	gw *Gateway
	tx *gorm.DB
}

func NewScope(gw *Gateway) Scope { return Scope{gw: gw} }

// Bind 返回绑定事务的副本；tx 为 nil 时原样返回
func (s Scope) Bind(tx *gorm.DB) Scope {
	if tx == nil {
		return s
	}
	return Scope{gw: s.gw, tx: tx}
}

func (s Scope) Dialect() query.Dialect { return s.gw.Dialect() }

func (s Scope) Gateway() *Gateway { return s.gw }

// Exec 写或单次读
func (s Scope) Exec(ctx context.Context, op string, fn func(db *gorm.DB) error) error {
	if s.tx != nil {
		return fn(s.tx.WithContext(ctx))
	}
	return s.gw.Run(ctx, op, fn)
}

// Read 需要一致快照的多次读（分页 count + data）
func (s Scope) Read(ctx context.Context, op string, fn func(db *gorm.DB) error) error {
	if s.tx != nil {
		return fn(s.tx.WithContext(ctx))
	}
	return s.gw.ReadSnapshot(ctx, op, fn)
}

// Tx 多步写；已绑定事务时直接复用
func (s Scope) Tx(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	if s.tx != nil {
		return fn(s.tx.WithContext(ctx))
	}
	return s.gw.Transaction(ctx, op, fn)
}
