// crm-server exposes every CRM route from a single process.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/app"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/cache"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/config"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/consumer"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/handlers"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/publisher"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(config.Load("crm-server", 8080))

	stores, err := a.OpenStores(ctx)
	if err != nil {
		a.Logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	opts := []service.OrderOption{
		service.WithLogger(a.Logger),
		service.WithRecorder(a.Metrics),
		service.WithRetry(a.Config.PlaceOrderMaxAttempts, a.Config.PlaceOrderRetryBackoff),
	}

	// The order flow writes stock directly, so cached reads are dropped in
	// process. The broker still receives every event for other consumers.
	var events service.FanOut
	products := stores.Products
	if c := a.OpenCache(ctx); c != nil {
		cached := cache.NewProductRepository(stores.Products, c, a.Logger)
		products = cached
		events = append(events, consumer.LocalInvalidation{Cache: cached})
	}
	if broker := a.OpenBroker(); broker != nil {
		events = append(events, publisher.NewOrderPublisher(broker))
	}
	if len(events) > 0 {
		opts = append(opts, service.WithEvents(events))
	}

	handlers.NewCustomerHandler(service.NewCustomerService(stores.Customers, a.Logger), a.Logger).Register(a.Router)
	handlers.NewProductHandler(service.NewProductService(products, a.Logger), a.Logger).Register(a.Router)
	handlers.NewOrderHandler(service.NewOrderService(stores.Tx, stores.Orders, opts...), a.Logger).Register(a.Router)

	if err := a.Run(ctx); err != nil {
		a.Logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
