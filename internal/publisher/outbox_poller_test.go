package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fjod/skincare-cart/internal/orders"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.uber.org/zap/zaptest"
)

type mockOutbox struct {
	m         sync.Mutex
	events    []*orders.OutboxEvent
	processed []int64
	fetchErr  error
}

func (m *mockOutbox) GetUnprocessedEvents(context.Context, int) ([]*orders.OutboxEvent, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	done := map[int64]bool{}
	for _, id := range m.processed {
		done[id] = true
	}
	out := []*orders.OutboxEvent{}
	for _, e := range m.events {
		if !done[e.ID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockOutbox) MarkEventAsProcessed(_ context.Context, id int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.processed = append(m.processed, id)
	return nil
}

func (m *mockOutbox) processedIDs() []int64 {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]int64(nil), m.processed...)
}

type mockWriter struct {
	m      sync.Mutex
	msgs   []kafkaGo.Message
	failOn string
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	w.m.Lock()
	defer w.m.Unlock()
	for _, msg := range msgs {
		if string(msg.Key) == w.failOn {
			return errors.New("broker not available")
		}
		w.msgs = append(w.msgs, msg)
	}
	return nil
}

func (w *mockWriter) Close() error { return nil }

func outboxEvent(id int64, aggregate string) *orders.OutboxEvent {
	return &orders.OutboxEvent{
		ID:          id,
		AggregateID: aggregate,
		EventType:   orders.EventTypeOrderPlaced,
		Payload:     json.RawMessage(fmt.Sprintf(`{"order_id":%q,"user_id":"user-1"}`, aggregate)),
		CreatedAt:   time.Now(),
	}
}

func TestProcessUnpublishedEvents(t *testing.T) {
	repo := &mockOutbox{events: []*orders.OutboxEvent{outboxEvent(1, "order-1"), outboxEvent(2, "order-2")}}
	writer := &mockWriter{}
	p := NewOutboxPoller(repo, writer, time.Second, zaptest.NewLogger(t))

	p.processUnpublishedEvents(context.Background())

	assert.Equal(t, []int64{1, 2}, repo.processedIDs())
	require.Len(t, writer.msgs, 2)
	assert.Equal(t, "order-1", string(writer.msgs[0].Key))
	assert.Equal(t, "event_type", writer.msgs[0].Headers[0].Key)
	assert.Equal(t, orders.EventTypeOrderPlaced, string(writer.msgs[0].Headers[0].Value))
}

func TestProcessUnpublishedEvents_StopsAtFirstFailure(t *testing.T) {
	repo := &mockOutbox{events: []*orders.OutboxEvent{outboxEvent(1, "order-1"), outboxEvent(2, "order-2"), outboxEvent(3, "order-3")}}
	writer := &mockWriter{failOn: "order-2"}
	p := NewOutboxPoller(repo, writer, time.Second, zaptest.NewLogger(t))

	p.processUnpublishedEvents(context.Background())
	assert.Equal(t, []int64{1}, repo.processedIDs())

	writer.failOn = ""
	p.processUnpublishedEvents(context.Background())
	assert.Equal(t, []int64{1, 2, 3}, repo.processedIDs())
}

func TestProcessUnpublishedEvents_FetchError(t *testing.T) {
	repo := &mockOutbox{fetchErr: errors.New("connection reset")}
	writer := &mockWriter{}

	NewOutboxPoller(repo, writer, time.Second, zaptest.NewLogger(t)).processUnpublishedEvents(context.Background())
	assert.Empty(t, writer.msgs)
}

func TestRun_StopsOnCancel(t *testing.T) {
	repo := &mockOutbox{events: []*orders.OutboxEvent{outboxEvent(1, "order-1")}}
	p := NewOutboxPoller(repo, &mockWriter{}, 10*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(repo.processedIDs()) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func setupKafka(t *testing.T) string {
	if testing.Short() {
		t.Skip("skipping Kafka container test in short mode")
	}
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")
	return brokers[0]
}

func TestOutboxPoller_PublishesEventsToKafka(t *testing.T) {
	brokerAddr := setupKafka(t)
	topic := "order-events"

	repo := &mockOutbox{events: []*orders.OutboxEvent{outboxEvent(1, "order-123")}}
	writer := NewKafkaWriter(topic, brokerAddr)
	writer.WriteTimeout = 10 * time.Second
	p := NewOutboxPoller(repo, writer, time.Second, zaptest.NewLogger(t))
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	go p.Run(ctx)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{brokerAddr},
		Topic:    topic,
		GroupID:  "test-consumer",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "order-123", string(msg.Key))

	var payload orders.OrderPlaced
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "order-123", payload.OrderID)
	assert.Equal(t, "user-1", payload.UserID)

	require.Eventually(t, func() bool {
		return len(repo.processedIDs()) == 1
	}, 10*time.Second, 100*time.Millisecond)
}
