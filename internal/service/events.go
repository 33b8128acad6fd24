package service

import (
	"context"
	"encoding/json"
	"time"

	"go-canteenadmin/internal/logging"
	"go-canteenadmin/internal/metrics"

	"go.uber.org/zap"
)

const (
	EventDishCreated       = "dish.created"
	EventDishUpdated       = "dish.updated"
	EventDishStatusChanged = "dish.status_changed"
	EventDishDeleted       = "dish.deleted"
	EventMenuSaved         = "menu.saved"
	EventMenuPublished     = "menu.published"
	EventMenuArchived      = "menu.archived"
	EventMenuDeleted       = "menu.deleted"
)

// Event 领域事件，以 JSON 投递到 Kafka，key 为实体 id（同一实体有序）
type Event struct {
	Type     string      `json:"type"`
	EntityID string      `json:"entityId"`
	ActorID  string      `json:"actorId,omitempty"`
	At       int64       `json:"at"`
	Payload  interface{} `json:"payload,omitempty"`
}

// Publisher kafka.Producer 实现；未配置 Kafka 时用 NopPublisher
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, []byte) error { return nil }

// emit 事件投递失败不影响已提交的写操作，只记日志与指标
func emit(ctx context.Context, p Publisher, l *logging.Logger, e Event) {
	if p == nil {
		return
	}
	if e.At == 0 {
		e.At = time.Now().UnixMilli()
	}
	b, err := json.Marshal(e)
	if err == nil {
		err = p.Publish(ctx, e.EntityID, b)
	}
	if err != nil {
		metrics.EventsPublished.WithLabelValues(e.Type, "error").Inc()
		if l != nil {
			l.WithContext(ctx).Warn("domain_event_publish_failed", zap.String("type", e.Type), zap.String("entity_id", e.EntityID), zap.Error(err))
		}
		return
	}
	metrics.EventsPublished.WithLabelValues(e.Type, "ok").Inc()
}
