package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/messaging"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
)

// Invalidator drops cached product reads.
type Invalidator interface {
	Invalidate(ctx context.Context, ids ...int64) error
}

// OrderConsumer keeps the product cache in line with stock changes made by
// committed orders.
type OrderConsumer struct {
	cache  Invalidator
	logger *slog.Logger
}

func NewOrderConsumer(cache Invalidator, logger *slog.Logger) *OrderConsumer {
	return &OrderConsumer{cache: cache, logger: logger}
}

// ProcessOrderCreated handles order.created events until messages closes.
func (c *OrderConsumer) ProcessOrderCreated(ctx context.Context, messages <-chan messaging.Message) {
	for msg := range messages {
		c.handle(ctx, msg)
	}
}

func (c *OrderConsumer) handle(ctx context.Context, msg messaging.Message) {
	var event models.OrderCreatedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Error("failed to parse event", "topic", msg.Topic, "error", err)
		c.settle(msg.Nack(false)) // don't requeue bad messages
		return
	}

	logger := c.logger.With("order_id", event.OrderID)
	if err := c.cache.Invalidate(ctx, event.ProductIDs...); err != nil {
		logger.Warn("cache invalidation failed, requeueing", "error", err)
		c.settle(msg.Nack(true))
		return
	}

	c.settle(msg.Ack())
	logger.Info("order event processed", "product_ids", event.ProductIDs)
}

func (c *OrderConsumer) settle(err error) {
	if err != nil {
		c.logger.Error("failed to settle message", "error", err)
	}
}

// LocalInvalidation applies the effect of an order.created event in process,
// for binaries that own both the order flow and the product cache.
type LocalInvalidation struct {
	Cache Invalidator
}

func (l LocalInvalidation) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return l.Cache.Invalidate(ctx, order.ProductIDs...)
}
