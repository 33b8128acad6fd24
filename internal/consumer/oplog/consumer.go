package oplog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"go-canteenadmin/internal/domain/model"
	"go-canteenadmin/internal/logging"
	"go-canteenadmin/internal/metrics"
	"go-canteenadmin/internal/mq/kafka"
	"go-canteenadmin/internal/repository/dao"

	kafkaGo "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Entry HTTP 操作日志消息体，由 OperationLog 中间件生产
type Entry struct {
	ActionName string   `json:"action_name"`
	Path       string   `json:"path"`
	Method     string   `json:"method"`
	Status     int      `json:"status"`
	LatencyMs  int64    `json:"latency_ms"`
	IP         string   `json:"ip"`
	UserID     string   `json:"user_id"`
	Time       string   `json:"time"`
	Body       string   `json:"body"`
	Query      string   `json:"query,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

const maxBodyLen = 2000

// Record 转成落库模型；时间不可解析时取 now
func (e Entry) Record(now time.Time) model.OperationLog {
	ts := now.Unix()
	if t, err := time.Parse(time.RFC3339, e.Time); err == nil {
		ts = t.Unix()
	}
	return model.OperationLog{
		ActionName: truncate(e.ActionName, 100),
		UserID:     e.UserID,
		Path:       truncate(e.Path, 200),
		Method:     e.Method,
		Status:     e.Status,
		LatencyMs:  e.LatencyMs,
		IP:         e.IP,
		Body:       truncate(e.Body, maxBodyLen),
		CreateTime: ts,
	}
}

// Handler 反序列化并写库；坏消息跳过，不重试
type Handler struct {
	Logs   *dao.OperationLogDAO
	Logger *logging.Logger
	now    func() time.Time
}

func NewHandler(logs *dao.OperationLogDAO, l *logging.Logger) *Handler {
	if l == nil {
		l = logging.Nop()
	}
	return &Handler{Logs: logs, Logger: l, now: time.Now}
}

func Decode(value []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(value, &e); err != nil {
		return e, fmt.Errorf("decode oplog: %w", err)
	}
	if e.Path == "" || e.Method == "" {
		return e, fmt.Errorf("decode oplog: path and method required")
	}
	return e, nil
}

func (h *Handler) Handle(ctx context.Context, m kafkaGo.Message) error {
	e, err := Decode(m.Value)
	if err != nil {
		metrics.OpLogConsumed.WithLabelValues("skipped").Inc()
		h.Logger.WithContext(ctx).Warn("oplog_message_skipped", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if err := h.Logs.CreateBatch(ctx, []model.OperationLog{e.Record(h.now())}); err != nil {
		metrics.OpLogConsumed.WithLabelValues("error").Inc()
		return err
	}
	metrics.OpLogConsumed.WithLabelValues("saved").Inc()
	return nil
}

// Run 阻塞消费直到 ctx 取消
func Run(ctx context.Context, c *kafka.Consumer, h *Handler) error {
	return c.Start(ctx, h.Handle)
}

// truncate 按字节截断但不切断 UTF-8 字符
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	s = s[:max]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
