package kafka

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-canteenadmin/internal/logging"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type memWriter struct {
	mu      sync.Mutex
	batches [][]kafkaGo.Message
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	cp := append([]kafkaGo.Message(nil), msgs...)
	w.batches = append(w.batches, cp)
	return nil
}

func (w *memWriter) total() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, b := range w.batches {
		n += len(b)
	}
	return n
}

func TestAsyncSender_FlushesBySize(t *testing.T) {
	w := &memWriter{}
	s := NewAsyncSender(w, logging.Nop(), 100, 1, 3, time.Hour)
	s.Start()
	for i := 0; i < 6; i++ {
		require.True(t, s.Enqueue(AsyncMessage{Value: []byte("x")}))
	}
	require.Eventually(t, func() bool { return w.total() == 6 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Close(context.Background()))
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, b := range w.batches {
		assert.Len(t, b, 3)
	}
}

func TestAsyncSender_FlushesByTimeout(t *testing.T) {
	w := &memWriter{}
	s := NewAsyncSender(w, logging.Nop(), 100, 1, 50, 10*time.Millisecond)
	s.Start()
	defer s.Close(context.Background())
	s.Enqueue(AsyncMessage{Value: []byte("a"), Headers: map[string]string{"trace_id": "t-1"}})
	require.Eventually(t, func() bool { return w.total() == 1 }, time.Second, 5*time.Millisecond)

	w.mu.Lock()
	msg := w.batches[0][0]
	w.mu.Unlock()
	var found bool
	for _, h := range msg.Headers {
		if h.Key == "trace_id" {
			found = string(h.Value) == "t-1"
		}
	}
	assert.True(t, found)
}

func TestAsyncSender_CloseDrainsAndDropsAfter(t *testing.T) {
	w := &memWriter{}
	s := NewAsyncSender(w, logging.Nop(), 100, 2, 50, time.Hour)
	s.Start()
	for i := 0; i < 10; i++ {
		s.Enqueue(AsyncMessage{Value: []byte("x")})
	}
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 10, w.total())
	assert.False(t, s.Enqueue(AsyncMessage{Value: []byte("late")}))
	assert.NoError(t, s.Close(context.Background()))
}

func TestAsyncSender_DropsWhenFull(t *testing.T) {
	s := NewAsyncSender(&memWriter{}, logging.Nop(), 1, 1, 10, time.Hour)
	// 未 Start，队列容量 1
	assert.True(t, s.Enqueue(AsyncMessage{Value: []byte("1")}))
	assert.False(t, s.Enqueue(AsyncMessage{Value: []byte("2")}))
}

func TestMessageContext_LegacyTraceHeader(t *testing.T) {
	ctx := MessageContext(context.Background(), kafkaGo.Message{Headers: []kafkaGo.Header{{Key: "trace_id", Value: []byte("abc")}}})
	assert.Equal(t, "abc", logging.TraceID(ctx))
}

type memReader struct {
	mu        sync.Mutex
	msgs      []kafkaGo.Message
	committed []int64
}

func (r *memReader) FetchMessage(ctx context.Context) (kafkaGo.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafkaGo.Message{}, ctx.Err()
}

func (r *memReader) CommitMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *memReader) Close() error { return nil }

func (r *memReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func TestConsumer_RetriesThenCommits(t *testing.T) {
	r := &memReader{msgs: []kafkaGo.Message{{Topic: "t", Offset: 1}, {Topic: "t", Offset: 2}, {Topic: "t", Offset: 3}}}
	c := newConsumer(r, ConsumerConfig{GroupID: "g", Retries: 2, Backoff: time.Millisecond}, nil)

	var mu sync.Mutex
	calls := map[int64]int{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Start(ctx, func(_ context.Context, m kafkaGo.Message) error {
			mu.Lock()
			defer mu.Unlock()
			calls[m.Offset]++
			switch {
			case m.Offset == 2 && calls[2] < 2:
				return assert.AnError
			case m.Offset == 3:
				return assert.AnError
			}
			return nil
		})
	}()

	require.Eventually(t, func() bool { return len(r.commits()) == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []int64{1, 2, 3}, r.commits())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls[1])
	assert.Equal(t, 2, calls[2], "succeeds on first retry")
	assert.Equal(t, 3, calls[3], "one try plus two retries, then committed")
}

func TestConsumer_CancelDuringBackoffSkipsCommit(t *testing.T) {
	r := &memReader{msgs: []kafkaGo.Message{{Topic: "t", Offset: 7}}}
	c := newConsumer(r, ConsumerConfig{Retries: 5, Backoff: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- c.Start(ctx, func(context.Context, kafkaGo.Message) error {
			close(started)
			return assert.AnError
		})
	}()
	<-started
	cancel()
	require.NoError(t, <-done)
	assert.Empty(t, r.commits())
}

func TestInjectHeaders_RoundTripsTraceAndKeepsExisting(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	hs := injectHeaders(ctx, toHeaders(map[string]string{"trace_id": "legacy"}))
	keys := map[string]int{}
	for _, h := range hs {
		keys[h.Key]++
	}
	assert.Equal(t, 1, keys["trace_id"])
	assert.Equal(t, 1, keys["traceparent"])

	// 已有 traceparent 不被覆盖
	again := injectHeaders(ctx, hs)
	assert.Len(t, again, len(hs))

	got := trace.SpanContextFromContext(MessageContext(context.Background(), kafkaGo.Message{Headers: hs}))
	assert.Equal(t, sc.TraceID(), got.TraceID())
	assert.Equal(t, "legacy", logging.TraceID(MessageContext(context.Background(), kafkaGo.Message{Headers: hs})))
}
