// Package poller consumes order-events and clears the cart of the session that
// placed the order.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const readBackoff = time.Second

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// SessionClearer must tolerate clearing the same session more than once.
type SessionClearer interface {
	ClearSession(ctx context.Context, sessionID string, placedAt time.Time) error
}

type Poller struct {
	carts  SessionClearer
	reader messageReader
	logger *zap.Logger
}

func NewPoller(carts SessionClearer, topic, groupID string, logger *zap.Logger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return newPoller(carts, reader, logger)
}

func newPoller(carts SessionClearer, reader messageReader, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{carts: carts, reader: reader, logger: logger}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		m, err := p.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("error reading message", zap.Error(err))
			select {
			case <-time.After(readBackoff):
			case <-ctx.Done():
				return
			}
			continue
		}
		if err := p.handleMessage(ctx, m); err != nil {
			p.logger.Warn("order event not applied",
				zap.String("key", string(m.Key)),
				zap.Int64("offset", m.Offset),
				zap.Error(err))
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.logger.Warn("error closing reader", zap.Error(err))
	}
}

func (p *Poller) handleMessage(ctx context.Context, m kafka.Message) error {
	if eventType := headerValue(m, "event_type"); eventType != "" && eventType != domain.EventOrderPlaced {
		return nil
	}

	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return fmt.Errorf("error parsing message: %w", err)
	}
	if event.SessionID == "" {
		return errors.New("missing session_id")
	}

	if event.PlacedAt.IsZero() {
		return errors.New("missing placed_at")
	}

	if err := p.carts.ClearSession(ctx, event.SessionID, event.PlacedAt); err != nil {
		return err
	}
	p.logger.Debug("cart cleared after order",
		zap.String("order_id", event.OrderID),
		zap.String("session_id", event.SessionID))
	return nil
}

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
