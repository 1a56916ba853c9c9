package publisher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fjod/printshop/internal/repository"
	"github.com/google/uuid"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

type mockOutboxRepository struct {
	m          sync.Mutex
	events     []*repository.OutboxEvent
	fetchErr   error
	markErr    error
	processed  []uuid.UUID
	prunedUpTo time.Time
	pruneCount int64
}

func (r *mockOutboxRepository) GetUnprocessedEvents(_ context.Context, limit int) ([]*repository.OutboxEvent, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	var out []*repository.OutboxEvent
	for _, e := range r.events {
		if e.ProcessedAt == nil && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *mockOutboxRepository) MarkEventAsProcessed(_ context.Context, id uuid.UUID) error {
	r.m.Lock()
	defer r.m.Unlock()
	if r.markErr != nil {
		return r.markErr
	}
	now := time.Now()
	for _, e := range r.events {
		if e.ID == id {
			e.ProcessedAt = &now
		}
	}
	r.processed = append(r.processed, id)
	return nil
}

func (r *mockOutboxRepository) DeleteProcessedEvents(_ context.Context, olderThan time.Time) (int64, error) {
	r.m.Lock()
	defer r.m.Unlock()
	r.prunedUpTo = olderThan
	return r.pruneCount, nil
}

type mockWriter struct {
	m        sync.Mutex
	messages []kafkaGo.Message
	failOn   string
	closed   bool
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	w.m.Lock()
	defer w.m.Unlock()
	for _, msg := range msgs {
		if string(msg.Key) == w.failOn {
			return errors.New("broker unavailable")
		}
		w.messages = append(w.messages, msg)
	}
	return nil
}

func (w *mockWriter) Close() error {
	w.closed = true
	return nil
}

func outboxEvent(orderID string) *repository.OutboxEvent {
	return &repository.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: orderID,
		EventType:   "order.placed",
		Payload:     []byte(fmt.Sprintf(`{"order_id":%q,"session_id":"s-%s"}`, orderID, orderID)),
		CreatedAt:   time.Now(),
	}
}

func header(msg kafkaGo.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProcessUnpublishedEvents(t *testing.T) {
	repo := &mockOutboxRepository{events: []*repository.OutboxEvent{outboxEvent("FL-1"), outboxEvent("FL-2")}}
	w := &mockWriter{}
	p := newOutboxPoller(repo, w, nil)

	p.processUnpublishedEvents(context.Background())

	require.Len(t, w.messages, 2)
	assert.Equal(t, "FL-1", string(w.messages[0].Key))
	assert.Equal(t, "order.placed", header(w.messages[0], "event_type"))
	assert.Equal(t, repo.events[0].ID.String(), header(w.messages[0], "event_id"))
	assert.JSONEq(t, `{"order_id":"FL-2","session_id":"s-FL-2"}`, string(w.messages[1].Value))
	assert.Equal(t, []uuid.UUID{repo.events[0].ID, repo.events[1].ID}, repo.processed)

	p.processUnpublishedEvents(context.Background())
	assert.Len(t, w.messages, 2, "processed events are not republished")
}

func TestProcessUnpublishedEvents_StopsAtFirstFailure(t *testing.T) {
	repo := &mockOutboxRepository{events: []*repository.OutboxEvent{
		outboxEvent("FL-1"), outboxEvent("FL-2"), outboxEvent("FL-3"),
	}}
	w := &mockWriter{failOn: "FL-2"}
	p := newOutboxPoller(repo, w, nil)

	p.processUnpublishedEvents(context.Background())

	require.Len(t, w.messages, 1)
	assert.Equal(t, []uuid.UUID{repo.events[0].ID}, repo.processed)

	w.failOn = ""
	p.processUnpublishedEvents(context.Background())
	require.Len(t, w.messages, 3)
	assert.Equal(t, "FL-2", string(w.messages[1].Key))
	assert.Equal(t, "FL-3", string(w.messages[2].Key))
}

func TestProcessUnpublishedEvents_MarkFailureRepublishesLater(t *testing.T) {
	repo := &mockOutboxRepository{events: []*repository.OutboxEvent{outboxEvent("FL-1")}, markErr: errors.New("deadlock")}
	w := &mockWriter{}
	p := newOutboxPoller(repo, w, nil)

	p.processUnpublishedEvents(context.Background())
	repo.markErr = nil
	p.processUnpublishedEvents(context.Background())

	assert.Len(t, w.messages, 2)
	assert.Len(t, repo.processed, 1)
}

func TestProcessUnpublishedEvents_FetchError(t *testing.T) {
	repo := &mockOutboxRepository{fetchErr: errors.New("connection refused")}
	w := &mockWriter{}
	p := newOutboxPoller(repo, w, nil)

	p.processUnpublishedEvents(context.Background())

	assert.Empty(t, w.messages)
}

func TestPruneProcessedEvents(t *testing.T) {
	repo := &mockOutboxRepository{pruneCount: 3}
	p := newOutboxPoller(repo, &mockWriter{}, nil)
	p.retention = time.Hour

	before := time.Now().Add(-time.Hour)
	p.pruneProcessedEvents(context.Background())

	assert.WithinDuration(t, before, repo.prunedUpTo, time.Second)
}

func TestRun_StopsOnCancel(t *testing.T) {
	repo := &mockOutboxRepository{events: []*repository.OutboxEvent{outboxEvent("FL-1")}}
	w := &mockWriter{}
	p := newOutboxPoller(repo, w, nil)
	p.eventTick = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		w.m.Lock()
		defer w.m.Unlock()
		return len(w.messages) == 1
	}, time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	p.Close()
	assert.True(t, w.closed)
}

func setupKafka(t *testing.T) string {
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

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafkaGo.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestOutboxPoller_PublishesToKafka(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}
	broker := setupKafka(t)
	topic := "order-events"
	createTopic(t, broker, topic)

	repo := &mockOutboxRepository{events: []*repository.OutboxEvent{outboxEvent("FL-42")}}
	p := NewOutboxPoller(repo, topic, nil, broker)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	p.processUnpublishedEvents(ctx)
	require.Len(t, repo.processed, 1)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers: []string{broker},
		Topic:   topic,
		MaxWait: 500 * time.Millisecond,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "FL-42", string(msg.Key))
	assert.Equal(t, "order.placed", header(msg, "event_type"))
}
