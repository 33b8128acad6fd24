package kafka

import (
	"context"
	"time"

	"go-canteenadmin/internal/logging"

	kafkaGo "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ConsumerConfig struct {
	Brokers []string
	GroupID string
	Topics  []string
	// Retries handler 失败后的重试次数（0 不重试），用尽后记录并提交 offset
	Retries int
	Backoff time.Duration
}

type MessageHandler func(ctx context.Context, msg kafkaGo.Message) error

// messageReader *kafkaGo.Reader 满足；测试用内存实现
type messageReader interface {
	FetchMessage(ctx context.Context) (kafkaGo.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

// Consumer 至少一次语义：handler 成功（或重试用尽）后才提交 offset
type Consumer struct {
	r       messageReader
	group   string
	retries int
	backoff time.Duration
	logger  *logging.Logger
}

func NewConsumer(cfg ConsumerConfig, l *logging.Logger) *Consumer {
	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    1 << 10,
		MaxBytes:    10 << 20,
		MaxWait:     500 * time.Millisecond,
	})
	return newConsumer(reader, cfg, l)
}

func newConsumer(r messageReader, cfg ConsumerConfig, l *logging.Logger) *Consumer {
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}
	if l == nil {
		l = logging.Nop()
	}
	return &Consumer{r: r, group: cfg.GroupID, retries: cfg.Retries, backoff: cfg.Backoff, logger: l}
}

// MessageContext 从 headers 还原 W3C trace 上下文；旧版 trace_id header 写入日志上下文
func MessageContext(ctx context.Context, m kafkaGo.Message) context.Context {
	carrier := propagation.MapCarrier{}
	for _, h := range m.Headers {
		carrier[h.Key] = string(h.Value)
	}
	ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)
	if v := carrier["trace_id"]; v != "" {
		ctx = logging.WithTraceID(ctx, v)
	}
	return ctx
}

// Start 消费循环，ctx 取消时返回 nil
func (c *Consumer) Start(ctx context.Context, handler MessageHandler) error {
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if !c.process(ctx, m, handler) {
			return nil
		}
		if err := c.r.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("kafka_commit_failed", zap.String("topic", m.Topic), zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}

// process 返回 false 表示 ctx 在重试等待中被取消，此时不提交
func (c *Consumer) process(ctx context.Context, m kafkaGo.Message, handler MessageHandler) bool {
	msgCtx, span := otel.Tracer("kafka-consumer").Start(MessageContext(ctx, m), m.Topic+" process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystem("kafka"),
			semconv.MessagingDestinationName(m.Topic),
			semconv.MessagingKafkaConsumerGroup(c.group),
			semconv.MessagingKafkaDestinationPartition(m.Partition),
			semconv.MessagingKafkaMessageOffset(int(m.Offset)),
		))
	defer span.End()

	var err error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}
		if err = handler(msgCtx, m); err == nil {
			return true
		}
		c.logger.WithContext(msgCtx).Warn("kafka_handle_retry", zap.String("topic", m.Topic), zap.Int64("offset", m.Offset), zap.Int("attempt", attempt+1), zap.Error(err))
	}
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
	c.logger.WithContext(msgCtx).Error("kafka_consume_failed", zap.String("topic", m.Topic), zap.Int64("offset", m.Offset), zap.Error(err))
	return true
}

func (c *Consumer) Close() error {
	if c.r == nil {
		return nil
	}
	return c.r.Close()
}
