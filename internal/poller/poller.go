// Package poller consumes order events and takes the ordered quantities out
// of the buyers' server carts.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fjod/skincare-cart/internal/domain"
	"github.com/fjod/skincare-cart/internal/orders"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const readErrorBackoff = time.Second

// MessageReader is the subset of *kafka.Reader the poller needs
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// CartReducer removes what an order bought from a user's server cart
type CartReducer interface {
	RemoveOrdered(ctx context.Context, userID, orderID string, lines []domain.ProductQuantity) error
}

type Poller struct {
	carts  CartReducer
	reader MessageReader
	log    *zap.Logger
}

func NewKafkaReader(topic, groupID string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
}

func NewPoller(carts CartReducer, reader MessageReader, log *zap.Logger) *Poller {
	return &Poller{carts: carts, reader: reader, log: log.Named("poller")}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := p.handleNext(ctx); err != nil && ctx.Err() == nil {
			p.log.Error("error reading message", zap.Error(err))
			select {
			case <-time.After(readErrorBackoff):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Warn("error closing reader", zap.Error(err))
	}
}

// handleNext returns an error only when reading from the broker fails.
// Malformed or irrelevant messages are logged and skipped.
func (p *Poller) handleNext(ctx context.Context) error {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		return err
	}

	if eventType := header(m, "event_type"); eventType != orders.EventTypeOrderPlaced {
		p.log.Debug("skipping event", zap.String("event_type", eventType))
		return nil
	}

	var event orders.OrderPlaced
	if err := json.Unmarshal(m.Value, &event); err != nil {
		p.log.Warn("error parsing message", zap.ByteString("key", m.Key), zap.Error(err))
		return nil
	}
	if event.UserID == "" {
		// guest orders have no server cart
		return nil
	}

	lines := make([]domain.ProductQuantity, 0, len(event.Items))
	for _, item := range event.Items {
		lines = append(lines, domain.ProductQuantity{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	if err := p.carts.RemoveOrdered(ctx, event.UserID, event.OrderID, lines); err != nil && !errors.Is(err, context.Canceled) {
		p.log.Error("failed to update cart after order", zap.String("user_id", event.UserID), zap.String("order_number", event.OrderNumber), zap.Error(err))
		return nil
	}
	p.log.Info("ordered items removed from cart", zap.String("user_id", event.UserID), zap.String("order_number", event.OrderNumber), zap.Int("lines", len(lines)))
	return nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
