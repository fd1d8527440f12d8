package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/obs"
)

type staticResolver map[string]string

func (r staticResolver) ServiceURL(name string) (string, error) {
	if u, ok := r[name]; ok {
		return u, nil
	}
	return "", errors.New("no healthy instances")
}

func upstream(t *testing.T, name string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", name)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(r.Method + " " + r.URL.RequestURI()))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func deadURL() string {
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	return dead.URL
}

// serve runs the gateway behind a real listener; ReverseProxy needs a
// ResponseWriter that supports CloseNotify, which a recorder does not.
func serve(t *testing.T, g *Gateway) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g.Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL
}

type response struct {
	status int
	header http.Header
	body   string
}

func call(t *testing.T, method, url string) response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, header: resp.Header, body: string(body)}
}

func TestProxyRoutesByPrefix(t *testing.T) {
	customers := upstream(t, CustomerService)
	products := upstream(t, ProductService)
	orders := upstream(t, OrderService)

	g := New(staticResolver{
		CustomerService: customers.URL,
		ProductService:  products.URL,
		OrderService:    orders.URL,
	}, []Upstream{{Name: CustomerService}, {Name: ProductService}, {Name: OrderService}}, obs.Discard())
	base := serve(t, g)

	tests := []struct {
		method, path, upstream string
	}{
		{http.MethodPost, "/customers/bulk", CustomerService},
		{http.MethodGet, "/products?in_stock=true", ProductService},
		{http.MethodGet, "/products", ProductService},
		{http.MethodPost, "/orders", OrderService},
		{http.MethodGet, "/orders/3", OrderService},
	}
	for _, tt := range tests {
		resp := call(t, tt.method, base+tt.path)
		require.Equal(t, http.StatusOK, resp.status, tt.path)
		assert.Equal(t, tt.upstream, resp.header.Get("X-Upstream"), tt.path)
		assert.Equal(t, tt.method+" "+tt.path, resp.body)
	}
}

func TestFallbackWhenUnresolved(t *testing.T) {
	products := upstream(t, ProductService)

	g := New(staticResolver{}, []Upstream{{Name: ProductService, Fallback: products.URL}}, obs.Discard())
	base := serve(t, g)

	resp := call(t, http.MethodGet, base+"/products/1")
	assert.Equal(t, http.StatusOK, resp.status)

	resp = call(t, http.MethodGet, base+"/services")
	var body struct {
		Services map[string]string `json:"services"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.body), &body))
	assert.Equal(t, products.URL, body.Services[ProductService])
}

func TestNilResolverUsesFallbacks(t *testing.T) {
	orders := upstream(t, OrderService)
	g := New(nil, []Upstream{{Name: OrderService, Fallback: orders.URL}}, obs.Discard())

	resp := call(t, http.MethodGet, serve(t, g)+"/orders")
	assert.Equal(t, OrderService, resp.header.Get("X-Upstream"))
}

func TestUnknownUpstreamIsUnavailable(t *testing.T) {
	g := New(nil, nil, obs.Discard())

	resp := call(t, http.MethodGet, serve(t, g)+"/customers")
	assert.Equal(t, http.StatusServiceUnavailable, resp.status)
}

func TestDeadUpstreamIsBadGateway(t *testing.T) {
	g := New(nil, []Upstream{{Name: OrderService, Fallback: deadURL()}}, obs.Discard())

	resp := call(t, http.MethodGet, serve(t, g)+"/orders")
	assert.Equal(t, http.StatusBadGateway, resp.status)
	assert.JSONEq(t, `{"error":{"kind":"UNAVAILABLE","message":"order-service unavailable"}}`, resp.body)
}

func TestHealthAggregates(t *testing.T) {
	healthy := upstream(t, ProductService)

	g := New(nil, []Upstream{
		{Name: ProductService, Fallback: healthy.URL},
		{Name: OrderService, Fallback: deadURL()},
	}, obs.Discard())

	resp := call(t, http.MethodGet, serve(t, g)+"/services/health")
	require.Equal(t, http.StatusOK, resp.status)

	var body struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.body), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "healthy", body.Services[ProductService])
	assert.Equal(t, "unhealthy", body.Services[OrderService])
}
