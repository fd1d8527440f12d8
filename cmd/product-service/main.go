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
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/messaging"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/publisher"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/service"
)

const serviceName = "product-service"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(config.Load(serviceName, 8081))

	stores, err := a.OpenStores(ctx)
	if err != nil {
		a.Logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	products := stores.Products
	if c := a.OpenCache(ctx); c != nil {
		cached := cache.NewProductRepository(stores.Products, c, a.Logger)
		products = cached
		if broker := a.OpenBroker(); broker != nil {
			startEventConsumer(ctx, a, broker, cached)
		}
	}

	handlers.NewProductHandler(service.NewProductService(products, a.Logger), a.Logger).Register(a.Router)

	if err := a.Run(ctx); err != nil {
		a.Logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// startEventConsumer drops cached stock for products named in order.created
// events published by the order service.
func startEventConsumer(ctx context.Context, a *app.App, sub messaging.Subscriber, cached *cache.ProductRepository) {
	messages, err := sub.Subscribe(ctx, publisher.OrderCreatedTopic, serviceName)
	if err != nil {
		a.Logger.Warn("⚠️ Failed to consume order events, cached stock may be stale until TTL", "error", err)
		return
	}

	a.Logger.Info("   Consuming order events", "topic", publisher.OrderCreatedTopic)
	go consumer.NewOrderConsumer(cached, a.Logger).ProcessOrderCreated(ctx, messages)
}
