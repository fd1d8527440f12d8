// Package app wires configuration, stores, the event broker and the HTTP
// server shared by every CRM binary.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/cache"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/config"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/db"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/discovery"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/handlers"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/messaging"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/metrics"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/obs"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/store"
)

type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.ServerMetrics
	Router   *gin.Engine

	closers []func() error
}

// Stores groups the repositories of the configured backend.
type Stores struct {
	Customers store.CustomerRepository
	Products  store.ProductRepository
	Orders    store.OrderRepository
	Tx        store.TxRunner
}

func New(cfg config.Config) *App {
	logger := obs.NewLogger(cfg.ServiceName, cfg.LogLevel)
	if obs.ParseLevel(cfg.LogLevel) != slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewServerMetrics(reg, cfg.ServiceName)

	router := gin.New()
	router.Use(gin.Recovery(), handlers.WithRequestID(), handlers.WithLogging(logger), m.Middleware())
	router.GET("/health", handlers.Health(cfg.ServiceName))
	router.GET("/metrics", gin.WrapH(metrics.Handler(reg)))

	return &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Metrics:  m,
		Router:   router,
	}
}

// OnClose registers fn to run after the server stops. Closers run in
// reverse registration order.
func (a *App) OnClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// OpenStores connects to Postgres and runs migrations, or builds an
// in-memory store when STORE_DRIVER=memory.
func (a *App) OpenStores(ctx context.Context) (*Stores, error) {
	switch a.Config.StoreDriver {
	case config.StoreMemory:
		m := store.NewMemoryStore(store.WithLockTimeout(a.Config.LockTimeout))
		a.Logger.Warn("⚠️ Using in-memory store, data is lost on restart")
		return &Stores{Customers: m, Products: m, Orders: m, Tx: m}, nil

	case config.StorePostgres:
		database, err := db.NewPostgresDB(ctx, a.Config.PostgresDSN())
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, err
		}
		a.OnClose(database.Close)
		a.Logger.Info("✅ Connected to PostgreSQL",
			"host", a.Config.PostgresHost, "port", a.Config.PostgresPort, "db", a.Config.PostgresDB)

		orders := db.NewOrderRepository(database, a.Config.LockTimeout)
		return &Stores{
			Customers: db.NewCustomerRepository(database),
			Products:  db.NewProductRepository(database),
			Orders:    orders,
			Tx:        orders,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", a.Config.StoreDriver)
	}
}

// OpenCache returns nil when Redis is disabled or unreachable; callers then
// read straight from the store.
func (a *App) OpenCache(ctx context.Context) cache.Cache {
	if !a.Config.RedisEnabled {
		return nil
	}
	redisCache, err := cache.NewRedisCache(ctx, a.Config.RedisHost, a.Config.RedisPort, a.Config.CacheTTL, a.Logger)
	if err != nil {
		a.Logger.Warn("⚠️ Redis unavailable, caching disabled", "error", err)
		return nil
	}
	a.OnClose(redisCache.Close)
	return redisCache
}

// OpenBroker returns nil when events are disabled or the broker cannot be
// reached. Orders are still placed without one.
func (a *App) OpenBroker() messaging.Broker {
	broker, err := messaging.NewBroker(a.Config, a.Logger)
	if errors.Is(err, messaging.ErrDisabled) {
		a.Logger.Info("event publishing disabled")
		return nil
	}
	if err != nil {
		a.Logger.Warn("⚠️ Event broker unavailable, events disabled", "broker", a.Config.EventBroker, "error", err)
		return nil
	}
	a.OnClose(broker.Close)
	return broker
}

// Run listens on the configured port until ctx is done.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Config.HTTPAddr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Config.HTTPAddr(), err)
	}
	return a.Serve(ctx, ln)
}

// Serve registers with Consul when enabled, serves HTTP on ln and shuts down
// gracefully once ctx is done.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	defer a.Close()

	if a.Config.ConsulEnabled {
		a.register()
	}

	srv := &http.Server{Handler: a.Router}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	a.Logger.Info("🚀 Service starting", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func (a *App) register() {
	consul, err := discovery.NewConsulClient(a.Config.ConsulHost, a.Config.ConsulPort, a.Logger)
	if err != nil {
		a.Logger.Warn("⚠️ Failed to connect to Consul, skipping registration", "error", err)
		return
	}
	err = consul.Register(discovery.ServiceConfig{
		Name: a.Config.ServiceName,
		ID:   a.Config.ServiceID,
		Port: a.Config.HTTPPort,
		Tags: []string{"api", "crm"},
	})
	if err != nil {
		a.Logger.Warn("⚠️ Failed to register with Consul", "error", err)
		return
	}
	a.OnClose(func() error { return consul.Deregister(a.Config.ServiceID) })
}

// Close runs the registered closers once.
func (a *App) Close() error {
	closers := a.closers
	a.closers = nil

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		fn := closers[i]
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		a.Logger.Error("failed to release resources", "error", err)
		return err
	}
	return nil
}
