// Package gateway routes public API traffic to the CRM services.
package gateway

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	CustomerService = "customer-service"
	ProductService  = "product-service"
	OrderService    = "order-service"
)

// Resolver looks up the base URL of a healthy service instance.
type Resolver interface {
	ServiceURL(name string) (string, error)
}

// Upstream names a service and the URL used when it cannot be resolved.
type Upstream struct {
	Name     string
	Fallback string
}

type Gateway struct {
	resolver  Resolver
	upstreams []Upstream
	logger    *slog.Logger
	client    *http.Client

	mutex    sync.RWMutex
	proxies  map[string]*httputil.ReverseProxy
	services map[string]string
}

// New resolves every upstream once. resolver may be nil, in which case the
// fallback URLs are used.
func New(resolver Resolver, upstreams []Upstream, logger *slog.Logger) *Gateway {
	g := &Gateway{
		resolver:  resolver,
		upstreams: upstreams,
		logger:    logger,
		client:    &http.Client{Timeout: 2 * time.Second},
		proxies:   make(map[string]*httputil.ReverseProxy),
		services:  make(map[string]string),
	}
	g.Refresh()
	return g
}

func (g *Gateway) Refresh() {
	for _, up := range g.upstreams {
		target := up.Fallback
		if g.resolver != nil {
			resolved, err := g.resolver.ServiceURL(up.Name)
			if err != nil {
				g.logger.Warn("⚠️ Service not found, using fallback", "service", up.Name, "fallback", up.Fallback, "error", err)
			} else {
				target = resolved
			}
		}
		g.updateProxy(up.Name, target)
	}
}

// Watch refreshes upstreams every interval until ctx is done.
func (g *Gateway) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Refresh()
		}
	}
}

func (g *Gateway) updateProxy(serviceName, serviceURL string) {
	target, err := url.Parse(serviceURL)
	if err != nil || target.Host == "" {
		g.logger.Error("❌ Invalid URL", "service", serviceName, "url", serviceURL, "error", err)
		return
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()
	if g.services[serviceName] == serviceURL {
		return
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		g.logger.Error("❌ Proxy error", "service", serviceName, "path", r.URL.Path, "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"error":{"kind":"UNAVAILABLE","message":"`+serviceName+` unavailable"}}`)
	}

	g.proxies[serviceName] = proxy
	g.services[serviceName] = serviceURL
	g.logger.Info("✅ Updated route", "service", serviceName, "url", serviceURL)
}

func (g *Gateway) getProxy(serviceName string) *httputil.ReverseProxy {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.proxies[serviceName]
}

// Proxy forwards the request to serviceName.
func (g *Gateway) Proxy(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		proxy := g.getProxy(serviceName)
		if proxy == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{
				"kind":    "UNAVAILABLE",
				"message": serviceName + " unavailable",
			}})
			return
		}
		g.logger.Debug("🔀 Routing", "method", c.Request.Method, "path", c.Request.URL.Path, "service", serviceName)
		proxy.ServeHTTP(c.Writer, c.Request)
	}
}

// HealthCheck reports "degraded" when any upstream fails its /health probe.
func (g *Gateway) HealthCheck(c *gin.Context) {
	g.mutex.RLock()
	services := maps.Clone(g.services)
	g.mutex.RUnlock()

	statuses := make(map[string]string, len(services))
	allHealthy := true
	for name, base := range services {
		if g.probe(c.Request.Context(), base) {
			statuses[name] = "healthy"
		} else {
			statuses[name] = "unhealthy"
			allHealthy = false
		}
	}

	status := "healthy"
	if !allHealthy {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"service":  "api-gateway",
		"services": statuses,
	})
}

func (g *Gateway) probe(ctx context.Context, base string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (g *Gateway) ListServices(c *gin.Context) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	c.JSON(http.StatusOK, gin.H{"services": g.services})
}

// Register mounts the proxy routes. The aggregated upstream health is served
// under /services/health so the gateway keeps its own /health.
func (g *Gateway) Register(r gin.IRoutes) {
	r.GET("/services", g.ListServices)
	r.GET("/services/health", g.HealthCheck)

	routes := map[string]string{
		"/customers": CustomerService,
		"/products":  ProductService,
		"/orders":    OrderService,
	}
	for prefix, service := range routes {
		r.Any(prefix, g.Proxy(service))
		r.Any(prefix+"/*path", g.Proxy(service))
	}
}
