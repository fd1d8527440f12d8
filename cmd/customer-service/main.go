package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/app"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/config"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/handlers"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(config.Load("customer-service", 8083))

	stores, err := a.OpenStores(ctx)
	if err != nil {
		a.Logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	handlers.NewCustomerHandler(service.NewCustomerService(stores.Customers, a.Logger), a.Logger).Register(a.Router)

	if err := a.Run(ctx); err != nil {
		a.Logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
