// Package metrics exposes Prometheus instrumentation for the CRM services.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "minisys_crm"

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec

	Orders        *prometheus.CounterVec
	OrderLatency  prometheus.Histogram
	OrderRetries  prometheus.Counter
	EventsEmitted *prometheus.CounterVec
}

// NewServerMetrics registers the service's collectors on reg.
func NewServerMetrics(reg prometheus.Registerer, service string) *ServerMetrics {
	subsystem := strings.ReplaceAll(service, "-", "_")

	m := &ServerMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"method", "route"}),
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "orders_placed_total",
			Help:      "PlaceOrder calls by outcome (error kind, or ok).",
		}, []string{"outcome"}),
		OrderLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "place_order_duration_ms",
			Help:      "PlaceOrder latency in milliseconds, retries included.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		}),
		OrderRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "place_order_retries_total",
			Help:      "Transaction retries after transient store failures.",
		}),
		EventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_published_total",
			Help:      "Domain events published, by topic and status.",
		}, []string{"topic", "status"}),
	}

	reg.MustRegister(m.Requests, m.LatencyMS, m.Orders, m.OrderLatency, m.OrderRetries, m.EventsEmitted)
	return m
}

// Middleware records request counts and latency per matched route.
func (m *ServerMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.LatencyMS.WithLabelValues(c.Request.Method, route).Observe(float64(time.Since(start).Milliseconds()))
	}
}

func (m *ServerMetrics) ObserveOrder(outcome string, d time.Duration) {
	m.Orders.WithLabelValues(outcome).Inc()
	m.OrderLatency.Observe(float64(d.Milliseconds()))
}

func (m *ServerMetrics) ObserveRetry() {
	m.OrderRetries.Inc()
}

func (m *ServerMetrics) ObserveEvent(topic string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.EventsEmitted.WithLabelValues(topic, status).Inc()
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
