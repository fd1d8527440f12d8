package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/app"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/config"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/handlers"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/publisher"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(config.Load("order-service", 8082))

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
	if broker := a.OpenBroker(); broker != nil {
		opts = append(opts, service.WithEvents(publisher.NewOrderPublisher(broker)))
		a.Logger.Info("   Publishing order events", "broker", a.Config.EventBroker)
	}

	orders := service.NewOrderService(stores.Tx, stores.Orders, opts...)
	handlers.NewOrderHandler(orders, a.Logger).Register(a.Router)

	if err := a.Run(ctx); err != nil {
		a.Logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
