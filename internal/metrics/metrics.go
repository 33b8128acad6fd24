package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency distribution",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method"})
	RequestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"path", "method", "status"})
	Inflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "In-flight HTTP requests",
	})
	DBUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_up",
		Help: "Database connectivity (1=up,0=down)",
	})
	RedisUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "redis_up",
		Help: "Redis connectivity (1=up,0=down)",
	})
	KafkaUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kafka_up",
		Help: "Kafka connectivity (1=up,0=down)",
	})
	EtcdUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "etcd_up",
		Help: "Etcd connectivity (1=up,0=down)",
	})
	DependencyCheckDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dependency_check_duration_seconds",
		Help:    "Latency of dependency health checks",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.2, 0.4, 0.8, 1},
	}, []string{"dep"})
	DBOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_operation_duration_seconds",
		Help:    "Latency of persistence gateway operations",
		Buckets: []float64{0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"op"})
	MenuSaveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "menu_draft_save_total",
		Help: "Menu draft saves by result",
	}, []string{"result"})
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Layered cache lookups by cache name and result (hit/miss)",
	}, []string{"cache", "result"})
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "domain_events_published_total",
		Help: "Domain events handed to the producer by type and result",
	}, []string{"type", "result"})
)

// 操作日志异步投递
var (
	OpLogEnqueue = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oplog_kafka_enqueue_total",
		Help: "Operation log entries offered to the async sender by result (ok/dropped)",
	}, []string{"result"})
	OpLogQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oplog_kafka_queue_depth",
		Help: "Operation log entries waiting in the async sender queue",
	})
	OpLogBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "oplog_kafka_batch_size",
		Help:    "Entries per flushed batch",
		Buckets: []float64{1, 5, 10, 20, 50, 100},
	})
	OpLogFlushTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oplog_kafka_flush_total",
		Help: "Async sender flushes by reason (size/timeout/shutdown)",
	}, []string{"reason"})
	OpLogSendErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oplog_kafka_send_errors_total",
		Help: "Operation log entries whose batch write failed",
	})
	OpLogConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oplog_consumed_total",
		Help: "Operation log messages handled by the consumer by result (saved/skipped/error)",
	}, []string{"result"})
)
