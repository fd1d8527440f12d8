package cache

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/obs"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/store"
)

type mapCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (c *mapCache) Get(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return c.getErr
	}
	b, ok := c.data[key]
	if !ok {
		return ErrMiss
	}
	return json.Unmarshal(b, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *mapCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *mapCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// countingRepo counts store reads behind the cache.
type countingRepo struct {
	*store.MemoryStore
	gets, lists int
}

func (r *countingRepo) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	r.gets++
	return r.MemoryStore.GetProduct(ctx, id)
}

func (r *countingRepo) ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, error) {
	r.lists++
	return r.MemoryStore.ListProducts(ctx, f)
}

func setup(t *testing.T) (*ProductRepository, *countingRepo, *mapCache, models.Product) {
	t.Helper()
	backing := &countingRepo{MemoryStore: store.NewMemoryStore()}
	c := newMapCache()
	repo := NewProductRepository(backing, c, obs.Discard())

	p := models.Product{Name: "Laptop", Price: decimal.RequireFromString("1000.00"), Stock: 2}
	require.NoError(t, repo.CreateProduct(context.Background(), &p))
	return repo, backing, c, p
}

func TestGetProductReadsThrough(t *testing.T) {
	ctx := context.Background()
	repo, backing, c, p := setup(t)

	first, err := repo.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	second, err := repo.GetProduct(ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, backing.gets)
	assert.True(t, first.Price.Equal(second.Price))
	assert.True(t, c.has("product:1"))
}

func TestGetProductMissingIsNotCached(t *testing.T) {
	repo, _, c, _ := setup(t)

	_, err := repo.GetProduct(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.False(t, c.has("product:42"))
}

func TestListProductsKeyedByFilter(t *testing.T) {
	ctx := context.Background()
	repo, backing, c, _ := setup(t)
	inStock := true

	_, err := repo.ListProducts(ctx, store.ProductFilter{})
	require.NoError(t, err)
	_, err = repo.ListProducts(ctx, store.ProductFilter{InStock: &inStock})
	require.NoError(t, err)
	_, err = repo.ListProducts(ctx, store.ProductFilter{})
	require.NoError(t, err)

	assert.Equal(t, 2, backing.lists)
	assert.True(t, c.has("products:list:all"))
	assert.True(t, c.has("products:list:in_stock"))
}

func TestCreateProductDropsListings(t *testing.T) {
	ctx := context.Background()
	repo, _, c, _ := setup(t)

	_, err := repo.ListProducts(ctx, store.ProductFilter{})
	require.NoError(t, err)
	require.True(t, c.has("products:list:all"))

	p := models.Product{Name: "Phone", Price: decimal.RequireFromString("500.00"), Stock: 1}
	require.NoError(t, repo.CreateProduct(ctx, &p))

	assert.False(t, c.has("products:list:all"))
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	repo, backing, c, p := setup(t)

	_, err := repo.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	_, err = repo.ListProducts(ctx, store.ProductFilter{})
	require.NoError(t, err)

	require.NoError(t, repo.Invalidate(ctx, p.ID))
	assert.False(t, c.has("product:1"))
	assert.False(t, c.has("products:list:all"))

	_, err = repo.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, backing.gets)
}

func TestCacheErrorsFallBackToStore(t *testing.T) {
	repo, backing, c, p := setup(t)
	c.getErr = errors.New("connection refused")

	got, err := repo.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Laptop", got.Name)
	assert.Equal(t, 1, backing.gets)
}
