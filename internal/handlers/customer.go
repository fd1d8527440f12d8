package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
)

type CustomerService interface {
	Create(ctx context.Context, req models.CreateCustomerRequest) (*models.Customer, error)
	BulkCreate(ctx context.Context, reqs []models.CreateCustomerRequest) models.BulkCreateCustomersResult
	List(ctx context.Context, search string) ([]models.Customer, error)
	Get(ctx context.Context, id int64) (*models.Customer, error)
}

type CustomerHandler struct {
	svc    CustomerService
	logger *slog.Logger
}

func NewCustomerHandler(svc CustomerService, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{svc: svc, logger: logger}
}

func (h *CustomerHandler) Register(r gin.IRoutes) {
	r.POST("/customers", h.CreateCustomer)
	r.POST("/customers/bulk", h.BulkCreateCustomers)
	r.GET("/customers", h.ListCustomers)
	r.GET("/customers/:id", h.GetCustomer)
}

func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req models.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "%s", err.Error())
		return
	}

	customer, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"customer": customer,
		"message":  "Customer created successfully!",
	})
}

// BulkCreateCustomers always answers 200; per-item failures are in "errors".
func (h *CustomerHandler) BulkCreateCustomers(c *gin.Context) {
	var req models.BulkCreateCustomersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "%s", err.Error())
		return
	}

	c.JSON(http.StatusOK, h.svc.BulkCreate(c.Request.Context(), req.Customers))
}

func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	customers, err := h.svc.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		badRequest(c, h.logger, "invalid customer ID")
		return
	}

	customer, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}
