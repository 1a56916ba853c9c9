// Package publisher relays order events from the transactional outbox to Kafka.
package publisher

import (
	"context"
	"time"

	"github.com/fjod/printshop/internal/repository"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultBatchSize = 100
	defaultRetention = 7 * 24 * time.Hour
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPoller publishes unprocessed outbox rows in insertion order and marks them
// processed. Delivery is at least once: a crash between publish and mark republishes.
type OutboxPoller struct {
	eventTick time.Duration
	pruneTick time.Duration
	retention time.Duration
	batchSize int
	repo      repository.OutboxRepository
	writer    messageWriter
	logger    *zap.Logger
}

func NewOutboxPoller(repo repository.OutboxRepository, topic string, logger *zap.Logger, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newOutboxPoller(repo, w, logger)
}

func newOutboxPoller(repo repository.OutboxRepository, w messageWriter, logger *zap.Logger) *OutboxPoller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxPoller{
		eventTick: time.Second,
		pruneTick: time.Hour,
		retention: defaultRetention,
		batchSize: defaultBatchSize,
		repo:      repo,
		writer:    w,
		logger:    logger,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	pruneTicker := time.NewTicker(p.pruneTick)
	defer eventTicker.Stop()
	defer pruneTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-pruneTicker.C:
			p.pruneProcessedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() {
	if err := p.writer.Close(); err != nil {
		p.logger.Warn("error closing kafka writer", zap.Error(err))
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("failed to fetch outbox events", zap.Error(err))
		return
	}

	for _, event := range events {
		if err := p.publishToKafka(ctx, event); err != nil {
			p.logger.Error("failed to publish outbox event",
				zap.Stringer("event_id", event.ID),
				zap.String("aggregate_id", event.AggregateID),
				zap.Error(err))
			// later events for the same order must not overtake this one
			return
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.logger.Error("failed to mark outbox event as processed",
				zap.Stringer("event_id", event.ID),
				zap.Error(err))
			return
		}
	}
}

func (p *OutboxPoller) pruneProcessedEvents(ctx context.Context) {
	deleted, err := p.repo.DeleteProcessedEvents(ctx, time.Now().Add(-p.retention))
	if err != nil {
		p.logger.Error("failed to prune outbox events", zap.Error(err))
		return
	}
	if deleted > 0 {
		p.logger.Info("pruned processed outbox events", zap.Int64("deleted", deleted))
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *repository.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id keeps one order's events on one partition
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.ID.String())},
		},
		Time: event.CreatedAt,
	}
	return p.writer.WriteMessages(ctx, msg)
}
