package boot

import (
	"context"
	"errors"
	"time"

	"go-canteenadmin/internal/config"
	"go-canteenadmin/internal/consumer/oplog"
	"go-canteenadmin/internal/logging"
	"go-canteenadmin/internal/mq/kafka"
	"go-canteenadmin/internal/repository/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConsumerApp 操作日志落库进程
type ConsumerApp struct {
	Config   *config.Config
	Logger   *logging.Logger
	DB       *gorm.DB
	Consumer *kafka.Consumer
	Handler  *oplog.Handler
	Tracing  *Tracing
}

func NewOpLogConsumer(c *config.Config, l *logging.Logger) (*kafka.Consumer, error) {
	if len(c.Kafka.Brokers) == 0 {
		return nil, errors.New("kafka.brokers required for oplog consumer")
	}
	return kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: c.Kafka.Brokers,
		GroupID: c.Kafka.ConsumerGroup,
		Topics:  []string{c.Kafka.OpLogTopic},
		Retries: 3,
		Backoff: 500 * time.Millisecond,
	}, l), nil
}

func NewConsumerApp(c *config.Config, l *logging.Logger, tr *Tracing, db *gorm.DB, kc *kafka.Consumer, h *oplog.Handler) *ConsumerApp {
	return &ConsumerApp{Config: c, Logger: l, Tracing: tr, DB: db, Consumer: kc, Handler: h}
}

// Run 阻塞到 ctx 取消
func (a *ConsumerApp) Run(ctx context.Context) error {
	a.Logger.Info("oplog_consumer_start",
		zap.Strings("brokers", a.Config.Kafka.Brokers),
		zap.String("topic", a.Config.Kafka.OpLogTopic),
		zap.String("group", a.Config.Kafka.ConsumerGroup))
	return oplog.Run(ctx, a.Consumer, a.Handler)
}

func (a *ConsumerApp) Close() {
	if err := a.Consumer.Close(); err != nil {
		a.Logger.Error("kafka_consumer_close_error", zap.Error(err))
	}
	database.Close(a.DB)
	if a.Tracing != nil && a.Tracing.Provider != nil {
		_ = a.Tracing.Provider.Shutdown(context.Background())
	}
	_ = a.Logger.Sync()
}
