package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/messaging"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
)

const OrderCreatedTopic = "order.created"

type OrderPublisher struct {
	pub messaging.Publisher
}

func NewOrderPublisher(pub messaging.Publisher) *OrderPublisher {
	return &OrderPublisher{pub: pub}
}

// PublishOrderCreated publishes an order.created event keyed by order id.
func (p *OrderPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(models.NewOrderCreatedEvent(order))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.pub.Publish(ctx, OrderCreatedTopic, strconv.FormatInt(order.ID, 10), data)
}
