// seed loads demo customers and products through the CRM HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/client"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/obs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "seed",
		Usage: "seed demo customers and products",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base-url",
				Value:   "http://localhost:8080",
				EnvVars: []string{"CRM_BASE_URL"},
				Usage:   "CRM API (gateway or crm-server) base URL",
			},
			&cli.Int64Flag{
				Name:  "stock",
				Value: 10,
				Usage: "initial stock of each seeded product",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Action: func(c *cli.Context) error {
			logger := obs.NewLogger("seed", c.String("log-level"))
			return seed(c.Context, client.NewCRMClient(c.String("base-url")), c.Int64("stock"), logger)
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "seed failed:", err)
		os.Exit(1)
	}
}

type crmAPI interface {
	BulkCreateCustomers(ctx context.Context, reqs []models.CreateCustomerRequest) (*models.BulkCreateCustomersResult, error)
	CreateProduct(ctx context.Context, req models.CreateProductRequest) (*models.Product, error)
}

var demoCustomers = []models.CreateCustomerRequest{
	{Name: "Alice", Email: "alice@example.com"},
	{Name: "Bob", Email: "bob@example.com"},
}

var demoProducts = []models.CreateProductRequest{
	{Name: "Laptop", Price: "1000.00"},
	{Name: "Phone", Price: "500.00"},
}

// seed reports customers that already exist and moves on, so a rerun only
// adds another set of products.
func seed(ctx context.Context, api crmAPI, stock int64, logger *slog.Logger) error {
	result, err := api.BulkCreateCustomers(ctx, demoCustomers)
	if err != nil {
		return fmt.Errorf("failed to seed customers: %w", err)
	}
	for _, c := range result.Customers {
		logger.Info("✅ Customer created", "id", c.ID, "email", c.Email)
	}
	for _, msg := range result.Errors {
		logger.Warn("⚠️ Customer skipped", "reason", msg)
	}

	for _, req := range demoProducts {
		req.Stock = stock
		p, err := api.CreateProduct(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to seed product %s: %w", req.Name, err)
		}
		logger.Info("✅ Product created", "id", p.ID, "name", p.Name, "price", p.Price.StringFixed(2), "stock", p.Stock)
	}

	logger.Info("✅ Database seeded successfully!")
	return nil
}
