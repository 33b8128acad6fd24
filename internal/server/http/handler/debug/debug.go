package debug

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go-canteenadmin/internal/config"
	"go-canteenadmin/internal/mq/kafka"
	"go-canteenadmin/pkg/response"

	"github.com/gin-gonic/gin"
	kafkaGo "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/trace"
)

// Dependencies 仅用于调试 handler
type Dependencies struct {
	Config *config.Config
}

type Handler struct{ d Dependencies }

func New(d Dependencies) *Handler { return &Handler{d: d} }

const (
	defaultPeekWait = 2 * time.Second
	maxPeekWait     = 10 * time.Second
)

// topics 可窥探的主题：events（领域事件）/ oplog（操作日志）
func (h *Handler) topic(name string) string {
	switch name {
	case "oplog":
		return h.d.Config.Kafka.OpLogTopic
	case "", "events":
		return h.d.Config.Kafka.EventTopic
	}
	return ""
}

// Peek GET /debug/kafka/peek?topic=events&waitMs=2000
// 每次请求临时创建 reader 读最新一条，不加入消费组，不提交 offset
func (h *Handler) Peek(c *gin.Context) {
	cfg := h.d.Config
	if cfg == nil || len(cfg.Kafka.Brokers) == 0 {
		response.Error(c, http.StatusServiceUnavailable, "kafka 未配置")
		return
	}
	topic := h.topic(c.Query("topic"))
	if topic == "" {
		response.Error(c, http.StatusBadRequest, "topic must be events or oplog")
		return
	}
	wait := defaultPeekWait
	if ms, err := strconv.Atoi(c.Query("waitMs")); err == nil && ms > 0 {
		wait = time.Duration(ms) * time.Millisecond
	}
	if wait > maxPeekWait {
		wait = maxPeekWait
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), wait)
	defer cancel()
	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:     cfg.Kafka.Brokers,
		Topic:       topic,
		StartOffset: kafkaGo.LastOffset,
		MinBytes:    1,
		MaxBytes:    1 << 20,
		MaxWait:     200 * time.Millisecond,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	if err != nil {
		response.JSON(c, http.StatusGatewayTimeout, false, "读取超时或错误", gin.H{"error": err.Error()})
		return
	}
	headers := make(map[string]string, len(msg.Headers))
	for _, hkv := range msg.Headers {
		headers[hkv.Key] = string(hkv.Value)
	}
	sc := trace.SpanContextFromContext(kafka.MessageContext(ctx, msg))
	var traceID, spanID string
	if sc.IsValid() {
		traceID = sc.TraceID().String()
		spanID = sc.SpanID().String()
	}
	var body interface{}
	if json.Unmarshal(msg.Value, &body) != nil {
		body = string(msg.Value)
	}
	response.Success(c, gin.H{
		"topic":     topic,
		"trace_id":  traceID,
		"span_id":   spanID,
		"headers":   headers,
		"body":      body,
		"partition": msg.Partition,
		"offset":    msg.Offset,
		"key":       string(msg.Key),
	})
}
