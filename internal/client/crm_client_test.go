package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/handlers"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/obs"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/service"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/store"
)

func newServer(t *testing.T) *CRMClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	m := store.NewMemoryStore()
	logger := obs.Discard()

	r := gin.New()
	handlers.NewCustomerHandler(service.NewCustomerService(m, logger), logger).Register(r)
	handlers.NewProductHandler(service.NewProductService(m, logger), logger).Register(r)
	handlers.NewOrderHandler(service.NewOrderService(m, m, service.WithLogger(logger)), logger).Register(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewCRMClient(srv.URL)
}

func TestClientOrderFlow(t *testing.T) {
	ctx := context.Background()
	c := newServer(t)

	result, err := c.BulkCreateCustomers(ctx, []models.CreateCustomerRequest{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Alice again", Email: "alice@example.com"},
	})
	require.NoError(t, err)
	require.Len(t, result.Customers, 1)
	assert.Equal(t, []string{"Duplicate email: alice@example.com"}, result.Errors)
	alice := result.Customers[0]

	p1, err := c.CreateProduct(ctx, models.CreateProductRequest{Name: "P1", Price: "100.00", Stock: 1})
	require.NoError(t, err)
	p2, err := c.CreateProduct(ctx, models.CreateProductRequest{Name: "P2", Price: "50.00", Stock: 1})
	require.NoError(t, err)

	order, err := c.PlaceOrder(ctx, alice.ID, []int64{p1.ID, p2.ID})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("150").Equal(order.TotalAmount))

	got, err := c.GetProduct(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Stock)

	_, err = c.PlaceOrder(ctx, alice.ID, []int64{p1.ID, p2.ID})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, "out of stock: P1", apperr.MessageOf(err))

	inStock := false
	empty, err := c.ListProducts(ctx, &inStock)
	require.NoError(t, err)
	assert.Len(t, empty, 2)
}

func TestClientSurfacesErrorKinds(t *testing.T) {
	ctx := context.Background()
	c := newServer(t)

	_, err := c.GetProduct(ctx, 404)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "product 404 not found", apperr.MessageOf(err))

	_, err = c.CreateCustomer(ctx, models.CreateCustomerRequest{Name: "X", Email: "nope"})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	_, err = c.PlaceOrder(ctx, 1, nil)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestClientNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewCRMClient(srv.URL).ListProducts(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned status 502")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}
