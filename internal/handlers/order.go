package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, customerID int64, productIDs []int64) (*models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, customerID int64) ([]models.Order, error)
}

type OrderHandler struct {
	svc    OrderService
	logger *slog.Logger
}

func NewOrderHandler(svc OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, logger: logger}
}

func (h *OrderHandler) Register(r gin.IRoutes) {
	r.GET("/orders", h.ListOrders)
	r.GET("/orders/:id", h.GetOrder)
	r.POST("/orders", h.CreateOrder)
}

// ListOrders accepts ?customer_id= to list one customer's orders.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var customerID int64
	if v := c.Query("customer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			badRequest(c, h.logger, "invalid customer ID")
			return
		}
		customerID = id
	}

	orders, err := h.svc.ListOrders(c.Request.Context(), customerID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		badRequest(c, h.logger, "invalid order ID")
		return
	}

	order, err := h.svc.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CreateOrder places an order; the total is always computed server side.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req models.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "%s", err.Error())
		return
	}

	order, err := h.svc.PlaceOrder(c.Request.Context(), req.CustomerID, req.ProductIDs)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order":   order,
		"message": "Order created successfully!",
	})
}
