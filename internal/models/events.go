package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderCreatedEvent is published after an order commits.
type OrderCreatedEvent struct {
	OrderID     int64           `json:"order_id"`
	CustomerID  int64           `json:"customer_id"`
	ProductIDs  []int64         `json:"product_ids"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		ProductIDs:  append([]int64(nil), o.ProductIDs...),
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
	}
}
