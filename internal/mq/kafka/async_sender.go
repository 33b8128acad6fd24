package kafka

import (
	"context"
	"sync"
	"time"

	"go-canteenadmin/internal/logging"
	"go-canteenadmin/internal/metrics"

	kafkaGo "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter *Producer 满足；测试里替换为内存实现
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
}

// AsyncMessage 入队单元；Ctx 只用于注入 trace 上下文，不控制发送超时
type AsyncMessage struct {
	Ctx       context.Context
	Key       []byte
	Value     []byte
	Headers   map[string]string
	EnqueueAt time.Time
}

// AsyncSender 有界队列 + 批量写：达到 maxBatch 或等待超过 maxWait 即 flush。
// 队列满直接丢弃，请求路径永不阻塞在 Kafka 上。
type AsyncSender struct {
	w      MessageWriter
	logger *logging.Logger
	queue  chan AsyncMessage
	wg     sync.WaitGroup

	workers  int
	maxBatch int
	maxWait  time.Duration

	closeOnce sync.Once
}

func NewAsyncSender(w MessageWriter, l *logging.Logger, queueSize, workers, maxBatch int, maxWait time.Duration) *AsyncSender {
	if queueSize <= 0 {
		queueSize = 10000
	}
	if workers <= 0 {
		workers = 1
	}
	if maxBatch <= 0 {
		maxBatch = 50
	}
	if maxWait <= 0 {
		maxWait = 20 * time.Millisecond
	}
	if l == nil {
		l = logging.Nop()
	}
	return &AsyncSender{w: w, logger: l, queue: make(chan AsyncMessage, queueSize), workers: workers, maxBatch: maxBatch, maxWait: maxWait}
}

func (s *AsyncSender) Start() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.loop()
	}
}

func (s *AsyncSender) loop() {
	defer s.wg.Done()
	batch := make([]AsyncMessage, 0, s.maxBatch)
	timer := time.NewTimer(s.maxWait)
	if !timer.Stop() {
		<-timer.C
	}
	var timerCh <-chan time.Time
	flush := func(reason string) {
		if len(batch) == 0 {
			return
		}
		s.write(batch, reason)
		batch = batch[:0]
		if timerCh != nil && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timerCh = nil
	}
	for {
		select {
		case m, ok := <-s.queue:
			if !ok {
				flush("shutdown")
				return
			}
			metrics.OpLogQueueDepth.Dec()
			batch = append(batch, m)
			if len(batch) == 1 {
				timer.Reset(s.maxWait)
				timerCh = timer.C
			}
			if len(batch) >= s.maxBatch {
				flush("size")
			}
		case <-timerCh:
			timerCh = nil
			flush("timeout")
		}
	}
}

func (s *AsyncSender) write(batch []AsyncMessage, reason string) {
	msgs := make([]kafkaGo.Message, 0, len(batch))
	for _, m := range batch {
		ctx := m.Ctx
		if ctx == nil {
			ctx = context.Background()
		}
		msgs = append(msgs, kafkaGo.Message{Key: m.Key, Value: m.Value, Time: m.EnqueueAt, Headers: injectHeaders(ctx, toHeaders(m.Headers))})
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.w.WriteMessages(ctx, msgs...); err != nil {
		metrics.OpLogSendErrors.Add(float64(len(batch)))
		s.logger.Warn("oplog_kafka_flush_failed", zap.String("reason", reason), zap.Int("size", len(batch)), zap.Error(err))
	}
	metrics.OpLogFlushTotal.WithLabelValues(reason).Inc()
	metrics.OpLogBatchSize.Observe(float64(len(batch)))
}

// Enqueue 非阻塞放入，满则丢弃；Close 之后调用同样丢弃
func (s *AsyncSender) Enqueue(m AsyncMessage) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
			metrics.OpLogEnqueue.WithLabelValues("dropped").Inc()
		}
	}()
	if m.EnqueueAt.IsZero() {
		m.EnqueueAt = time.Now()
	}
	select {
	case s.queue <- m:
		metrics.OpLogEnqueue.WithLabelValues("ok").Inc()
		metrics.OpLogQueueDepth.Inc()
		return true
	default:
		metrics.OpLogEnqueue.WithLabelValues("dropped").Inc()
		return false
	}
}

// Close 停止接收并把队列里剩余的消息写完
func (s *AsyncSender) Close(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.queue) })
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
