package service

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/store"
)

// maxPrice is the first value that no longer fits NUMERIC(10,2), the type
// of both product prices and order totals.
var maxPrice = decimal.New(1, 8)

type ProductService struct {
	repo   store.ProductRepository
	logger *slog.Logger
}

func NewProductService(repo store.ProductRepository, logger *slog.Logger) *ProductService {
	return &ProductService{repo: repo, logger: logger}
}

func (s *ProductService) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	p, err := newProduct(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, storeErr(err, "product not found")
	}
	s.logger.Info("product created", "product_id", p.ID, "price", p.Price.StringFixed(2), "stock", p.Stock)
	return p, nil
}

// List filters on availability when inStock is set.
func (s *ProductService) List(ctx context.Context, inStock *bool) ([]models.Product, error) {
	products, err := s.repo.ListProducts(ctx, store.ProductFilter{InStock: inStock})
	if err != nil {
		return nil, storeErr(err, "products not found")
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, storeErr(err, "product "+strconv.FormatInt(id, 10)+" not found")
	}
	return p, nil
}

func newProduct(req models.CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.InvalidArgument("name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return nil, apperr.InvalidArgument("name must be at most %d characters", maxNameLen)
	}

	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil {
		return nil, apperr.InvalidArgument("Invalid price format")
	}
	switch {
	case !price.IsPositive():
		return nil, apperr.InvalidArgument("price must be positive")
	case !price.Equal(price.Truncate(2)):
		return nil, apperr.InvalidArgument("price must have at most 2 decimal places")
	case price.GreaterThanOrEqual(maxPrice):
		return nil, apperr.InvalidArgument("price must be less than %s", maxPrice.String())
	}

	if req.Stock < 0 {
		return nil, apperr.InvalidArgument("stock cannot be negative")
	}
	if req.Stock > math.MaxInt32 {
		return nil, apperr.InvalidArgument("stock must be at most %d", math.MaxInt32)
	}
	return &models.Product{Name: name, Price: price, Stock: req.Stock}, nil
}
