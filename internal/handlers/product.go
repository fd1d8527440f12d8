package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
)

type ProductService interface {
	Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error)
	List(ctx context.Context, inStock *bool) ([]models.Product, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
}

type ProductHandler struct {
	svc    ProductService
	logger *slog.Logger
}

func NewProductHandler(svc ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{svc: svc, logger: logger}
}

func (h *ProductHandler) Register(r gin.IRoutes) {
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)
	r.POST("/products", h.CreateProduct)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "%s", err.Error())
		return
	}

	product, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"product": product,
		"message": "Product created successfully!",
	})
}

// ListProducts accepts ?in_stock=true|false.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var inStock *bool
	if v, ok := c.GetQuery("in_stock"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, h.logger, "in_stock must be true or false")
			return
		}
		inStock = &b
	}

	products, err := h.svc.List(c.Request.Context(), inStock)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		badRequest(c, h.logger, "invalid product ID")
		return
	}

	product, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
