package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/app"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/config"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/discovery"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/gateway"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load("api-gateway", 8080)
	// Consul is only used for discovery; the gateway does not register itself.
	useConsul := cfg.ConsulEnabled
	cfg.ConsulEnabled = false
	a := app.New(cfg)

	var resolver gateway.Resolver
	if useConsul {
		consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort, a.Logger)
		if err != nil {
			a.Logger.Warn("⚠️ Failed to connect to Consul, using K8s DNS", "error", err)
		} else {
			resolver = consul
		}
	}

	gw := gateway.New(resolver, []gateway.Upstream{
		{Name: gateway.CustomerService, Fallback: cfg.CustomerServiceURL},
		{Name: gateway.ProductService, Fallback: cfg.ProductServiceURL},
		{Name: gateway.OrderService, Fallback: cfg.OrderServiceURL},
	}, a.Logger)
	if resolver != nil {
		go gw.Watch(ctx, 10*time.Second)
	}

	gw.Register(a.Router)

	if err := a.Run(ctx); err != nil {
		a.Logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
