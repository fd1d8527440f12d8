package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/store"
)

const productListPattern = "products:list:*"

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func productListKey(f store.ProductFilter) string {
	switch {
	case f.InStock == nil:
		return "products:list:all"
	case *f.InStock:
		return "products:list:in_stock"
	default:
		return "products:list:out_of_stock"
	}
}

// ProductRepository is a read-through cache in front of a product store.
// Cache failures are logged and fall back to the store.
type ProductRepository struct {
	repo   store.ProductRepository
	cache  Cache
	logger *slog.Logger
}

var _ store.ProductRepository = (*ProductRepository)(nil)

func NewProductRepository(repo store.ProductRepository, cache Cache, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{repo: repo, cache: cache, logger: logger}
}

func (r *ProductRepository) ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, error) {
	key := productListKey(f)

	var products []models.Product
	err := r.cache.Get(ctx, key, &products)
	if err == nil {
		r.logger.Debug("cache hit", "key", key)
		return products, nil
	}
	r.logMiss(key, err)

	products, err = r.repo.ListProducts(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, products); err != nil {
		r.logger.Warn("failed to cache products", "key", key, "error", err)
	}
	return products, nil
}

func (r *ProductRepository) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	key := productKey(id)

	var product models.Product
	err := r.cache.Get(ctx, key, &product)
	if err == nil {
		r.logger.Debug("cache hit", "key", key)
		return &product, nil
	}
	r.logMiss(key, err)

	p, err := r.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, p); err != nil {
		r.logger.Warn("failed to cache product", "key", key, "error", err)
	}
	return p, nil
}

// CreateProduct writes through to the store and drops cached listings.
func (r *ProductRepository) CreateProduct(ctx context.Context, p *models.Product) error {
	if err := r.repo.CreateProduct(ctx, p); err != nil {
		return err
	}
	if err := r.cache.DeleteByPattern(ctx, productListPattern); err != nil {
		r.logger.Warn("failed to invalidate product listings", "error", err)
	}
	return nil
}

// Invalidate drops the cached entries of the given products and every cached
// listing, since stock changes move products between the in-stock filters.
func (r *ProductRepository) Invalidate(ctx context.Context, ids ...int64) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to invalidate products: %w", err)
	}
	if err := r.cache.DeleteByPattern(ctx, productListPattern); err != nil {
		return fmt.Errorf("failed to invalidate product listings: %w", err)
	}
	r.logger.Debug("cache invalidated", "product_ids", ids)
	return nil
}

func (r *ProductRepository) logMiss(key string, err error) {
	if errors.Is(err, ErrMiss) {
		r.logger.Debug("cache miss", "key", key)
		return
	}
	r.logger.Warn("cache error", "key", key, "error", err)
}
