package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID          int64           `json:"id"`
	CustomerID  int64           `json:"customer_id"`
	ProductIDs  []int64         `json:"product_ids"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

type PlaceOrderRequest struct {
	CustomerID int64   `json:"customer_id" binding:"required"`
	ProductIDs []int64 `json:"product_ids"`
}
