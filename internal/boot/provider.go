package boot

import (
	"context"
	"net"
	"sync"
	"time"

	"go-canteenadmin/internal/config"
	"go-canteenadmin/internal/discovery/etcd"
	"go-canteenadmin/internal/domain/model"
	"go-canteenadmin/internal/logging"
	"go-canteenadmin/internal/metrics"
	"go-canteenadmin/internal/mq/kafka"
	"go-canteenadmin/internal/pkg/cache"
	"go-canteenadmin/internal/repository/database"
	redisrepo "go-canteenadmin/internal/repository/redis"
	"go-canteenadmin/internal/security/jwt"
	httpSrv "go-canteenadmin/internal/server/http"
	adminh "go-canteenadmin/internal/server/http/handler/admin"
	debugh "go-canteenadmin/internal/server/http/handler/debug"
	obs "go-canteenadmin/internal/server/http/middleware/observability"
	"go-canteenadmin/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	go_otel "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
	"google.golang.org/grpc/credentials"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"
)

// OpLogProducer / EventProducer 区分两个 topic 的 Producer；未配置 Kafka 时为 nil
type OpLogProducer struct{ *kafka.Producer }

type EventProducer struct{ *kafka.Producer }

// Tracing Provider 为 nil 表示未启用
type Tracing struct{ Provider *trace.TracerProvider }

type App struct {
	Config  *config.Config
	Logger  *logging.Logger
	DB      *gorm.DB
	Redis   *redisrepo.Client
	OpLog   *OpLogProducer
	Events  *EventProducer
	Sender  *kafka.AsyncSender
	Etcd    *etcd.Client
	HTTP    *gin.Engine
	Tracing *Tracing
	Local   *cache.SimpleCache

	regMu        sync.Mutex
	registration *etcd.Registration
	stopCh       chan struct{}
}

func ProvideConfig(path string) (*config.Config, error) { return config.Load(path) }

func NewLogger(c *config.Config) (*logging.Logger, error) {
	return logging.New(c.Log.Level, c.Log.Format)
}

// NewTracing 在其他组件之前初始化，保证 gorm / redis 的埋点挂在真实的 TracerProvider 上
func NewTracing(c *config.Config, l *logging.Logger) *Tracing {
	go_otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	if !c.OTel.Enable {
		return &Tracing{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(c.OTel.Endpoint)}
	if c.OTel.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		l.Error("otel_exporter_init_failed", zap.Error(err))
		return &Tracing{}
	}
	res, _ := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(c.AppMeta.Name),
		semconv.ServiceVersionKey.String(c.AppMeta.Version),
	))
	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(c.OTel.SamplerRatio))),
	)
	go_otel.SetTracerProvider(tp)
	l.Info("otel_tracer_provider_initialized", zap.String("endpoint", c.OTel.Endpoint))
	return &Tracing{Provider: tp}
}

func NewDatabase(c *config.Config, l *logging.Logger, tr *Tracing) (*gorm.DB, error) {
	db, err := database.New(database.Config{
		Driver:          c.Database.Driver,
		DSN:             c.Database.DSN,
		Host:            c.Database.Host,
		Port:            c.Database.Port,
		User:            c.Database.User,
		Password:        c.Database.Password,
		Name:            c.Database.Name,
		MaxOpen:         c.Database.MaxOpen,
		MaxIdle:         c.Database.MaxIdle,
		ConnMaxLifetime: c.ConnMaxLifetime(),
		LogLevel:        c.Database.LogLevel,
	})
	if err != nil {
		return nil, err
	}
	if tr != nil && tr.Provider != nil {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			l.Error("gorm_tracing_plugin_failed", zap.Error(err))
		}
	}
	if c.Database.AutoMigrate {
		if err := database.AutoMigrateModels(db, model.All()...); err != nil {
			l.Error("auto_migrate_failed", zap.Error(err))
		}
	}
	return db, nil
}

func NewGateway(db *gorm.DB, c *config.Config) *database.Gateway {
	return database.NewGateway(db, c.OpTimeout())
}

// NewRedis redis.enable=false 时返回 nil，缓存退化为进程内
func NewRedis(c *config.Config, tr *Tracing) *redisrepo.Client {
	if !c.Redis.Enable {
		return nil
	}
	return redisrepo.New(redisrepo.Config{
		Addr:         c.Redis.Addr,
		Password:     c.Redis.Password,
		DB:           c.Redis.DB,
		DialTimeout:  time.Second,
		ReadTimeout:  500 * time.Millisecond,
		Instrumented: tr != nil && tr.Provider != nil,
	})
}

func NewLocalCache() *cache.SimpleCache { return cache.New(time.Minute) }

// ProvideCache L1 本地 + L2 Redis；没有 Redis 时只用 L1
func ProvideCache(l1 *cache.SimpleCache, r *redisrepo.Client) cache.Cache {
	if r == nil {
		return cache.NewSimpleAdapter(l1)
	}
	return cache.NewLayered(cache.NewSimpleAdapter(l1), cache.NewRedisAdapter(r))
}

func NewOpLogProducer(c *config.Config) *OpLogProducer {
	if len(c.Kafka.Brokers) == 0 || c.Kafka.OpLogTopic == "" {
		return nil
	}
	return &OpLogProducer{kafka.NewProducer(kafka.Config{Brokers: c.Kafka.Brokers, Topic: c.Kafka.OpLogTopic})}
}

func NewEventProducer(c *config.Config) *EventProducer {
	if len(c.Kafka.Brokers) == 0 || c.Kafka.EventTopic == "" {
		return nil
	}
	return &EventProducer{kafka.NewProducer(kafka.Config{Brokers: c.Kafka.Brokers, Topic: c.Kafka.EventTopic})}
}

func ProvidePublisher(p *EventProducer) service.Publisher {
	if p == nil {
		return service.NopPublisher{}
	}
	return p.Producer
}

// NewOpLogSender 未配置 Kafka 时为 nil，中间件不再记录
func NewOpLogSender(p *OpLogProducer, c *config.Config, l *logging.Logger) *kafka.AsyncSender {
	if p == nil {
		return nil
	}
	s := kafka.NewAsyncSender(p.Producer, l, 10000, c.Kafka.OpLogWorkers, 50, 20*time.Millisecond)
	s.Start()
	return s
}

// ProvideOpLogQueue 显式返回 nil 接口，避免 nil 指针装进接口
func ProvideOpLogQueue(s *kafka.AsyncSender) obs.Enqueuer {
	if s == nil {
		return nil
	}
	return s
}

func NewEtcd(c *config.Config) (*etcd.Client, error) {
	if len(c.Etcd.Endpoints) == 0 {
		return nil, nil
	}
	return etcd.New(etcd.Config{Endpoints: c.Etcd.Endpoints, TTL: c.Etcd.TTL})
}

func NewJWTManager(c *config.Config) *jwt.Manager {
	return jwt.NewManager(c.JWT.Secret, c.JWT.Issuer)
}

func ProvideAdminDeps(d *service.DishService, m *service.MenuService, a *service.AdminService, ch cache.Cache, l *logging.Logger) adminh.Dependencies {
	return adminh.Dependencies{Dish: d, Menu: m, Admin: a, Cache: ch, Logger: l}
}

func ProvideDebugDeps(c *config.Config) debugh.Dependencies {
	return debugh.Dependencies{Config: c}
}

// ProvideHealthChecker 只有数据库是必需依赖；未配置的依赖不参与探测
func ProvideHealthChecker(db *gorm.DB, r *redisrepo.Client, p *OpLogProducer, e *etcd.Client) *httpSrv.HealthChecker {
	deps := []httpSrv.Dependency{{Name: "db", Pinger: httpSrv.DBPinger(db), Required: true, Up: metrics.DBUp}}
	if r != nil {
		deps = append(deps, httpSrv.Dependency{Name: "redis", Pinger: r, Timeout: 250 * time.Millisecond, Up: metrics.RedisUp})
	}
	if p != nil {
		deps = append(deps, httpSrv.Dependency{Name: "kafka", Pinger: p.Producer, Timeout: 500 * time.Millisecond, Up: metrics.KafkaUp})
	}
	if e != nil {
		deps = append(deps, httpSrv.Dependency{Name: "etcd", Pinger: e, Timeout: 250 * time.Millisecond, Up: metrics.EtcdUp})
	}
	return httpSrv.NewHealthChecker(deps...)
}

func NewApp(c *config.Config, l *logging.Logger, tr *Tracing, db *gorm.DB, local *cache.SimpleCache, r *redisrepo.Client, op *OpLogProducer, ev *EventProducer, s *kafka.AsyncSender, e *etcd.Client, engine *gin.Engine) *App {
	app := &App{Config: c, Logger: l, Tracing: tr, DB: db, Local: local, Redis: r, OpLog: op, Events: ev, Sender: s, Etcd: e, HTTP: engine, stopCh: make(chan struct{})}
	go app.sweepLocal(time.Minute)
	if r != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		if err := r.Ping(ctx); err != nil {
			l.Error("redis_ping_failed", zap.Error(err), zap.String("addr", c.Redis.Addr))
		} else {
			l.Info("redis_ping_ok", zap.String("addr", c.Redis.Addr))
		}
		cancel()
		go app.redisHeartbeat(5 * time.Second)
	}
	if e != nil {
		go app.register()
	}
	return app
}

// sweepLocal 定期清理 L1 过期项，否则只在读到时才释放
func (a *App) sweepLocal(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-a.stopCh:
			return
		case <-t.C:
			if n := a.Local.Sweep(); n > 0 {
				a.Logger.Debug("local_cache_swept", zap.Int("removed", n))
			}
		}
	}
}

// redisHeartbeat 只在状态切换时打日志
func (a *App) redisHeartbeat(interval time.Duration) {
	lastUp := true
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-a.stopCh:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			err := a.Redis.Ping(ctx)
			cancel()
			if err != nil {
				metrics.RedisUp.Set(0)
				if lastUp {
					a.Logger.Warn("redis_down", zap.Error(err))
				}
				lastUp = false
				continue
			}
			metrics.RedisUp.Set(1)
			if !lastUp {
				a.Logger.Info("redis_recovered")
			}
			lastUp = true
		}
	}
}

// register 指数退避注册，最多 5 次
func (a *App) register() {
	c := a.Config
	inst := etcd.Instance{
		ID:        uuid.NewString(),
		Addr:      advertiseAddr(c.HTTP.Addr),
		Version:   c.AppMeta.Version,
		StartedAt: time.Now().Unix(),
	}
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithCancel(context.Background())
		reg, err := a.Etcd.Register(ctx, c.Etcd.ServiceName, inst)
		if err == nil {
			a.regMu.Lock()
			a.registration = reg
			a.regMu.Unlock()
			metrics.EtcdUp.Set(1)
			a.Logger.Info("etcd_registered", zap.String("key", reg.Key))
			go func() {
				<-a.stopCh
				cancel()
			}()
			return
		}
		cancel()
		if attempt >= 5 {
			a.Logger.Error("etcd_register_failed", zap.Error(err), zap.Int("attempt", attempt))
			return
		}
		backoff := time.Duration(1<<attempt) * 100 * time.Millisecond
		a.Logger.Warn("etcd_register_retry", zap.Error(err), zap.Int("attempt", attempt), zap.Duration("backoff", backoff))
		select {
		case <-a.stopCh:
			return
		case <-time.After(backoff):
		}
	}
}

func (a *App) Close() {
	if a.stopCh != nil {
		close(a.stopCh)
	}
	if a.Etcd != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		a.regMu.Lock()
		a.Etcd.Deregister(ctx, a.registration)
		a.regMu.Unlock()
		cancel()
		metrics.EtcdUp.Set(0)
		if err := a.Etcd.Close(); err != nil {
			a.Logger.Error("etcd_close_error", zap.Error(err))
		}
	}
	// 先排空异步队列再关 Producer
	if a.Sender != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.Sender.Close(ctx); err != nil {
			a.Logger.Warn("oplog_sender_close_timeout", zap.Error(err))
		}
		cancel()
	}
	if a.OpLog != nil {
		a.closeProducer("oplog", a.OpLog.Producer)
	}
	if a.Events != nil {
		a.closeProducer("events", a.Events.Producer)
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("redis_close_error", zap.Error(err))
		}
	}
	database.Close(a.DB)
	if a.Tracing != nil && a.Tracing.Provider != nil {
		if err := a.Tracing.Provider.Shutdown(context.Background()); err != nil {
			a.Logger.Error("otel_tracer_shutdown_error", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}

func (a *App) closeProducer(name string, p *kafka.Producer) {
	if err := p.Close(); err != nil {
		a.Logger.Error("kafka_close_error", zap.String("producer", name), zap.Error(err))
	}
}

// advertiseAddr ":8080" 补上本机首个非 loopback IPv4
func advertiseAddr(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" || host == "0.0.0.0" {
		if ip := firstNonLoopbackIPv4(); ip != "" {
			host = ip
		} else {
			host = "127.0.0.1"
		}
	}
	return net.JoinHostPort(host, port)
}

func firstNonLoopbackIPv4() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipn, ok := addr.(*net.IPNet); ok && !ipn.IP.IsLoopback() {
				if ip := ipn.IP.To4(); ip != nil {
					return ip.String()
				}
			}
		}
	}
	return ""
}
