// Package store defines the record store boundary used by the services and
// an in-memory implementation of it.
package store

import (
	"context"
	"errors"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrTransient marks failures after which the whole transaction may be
	// retried: lock timeouts, deadlocks, serialization failures, lost connections.
	ErrTransient = errors.New("transient store failure")
)

type CustomerFilter struct {
	// Search matches name or email, case-insensitively.
	Search string
}

type ProductFilter struct {
	// InStock nil means no filter; true keeps stock > 0, false keeps stock == 0.
	InStock *bool
}

type OrderFilter struct {
	CustomerID int64
}

type CustomerRepository interface {
	CreateCustomer(ctx context.Context, c *models.Customer) error
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	CustomerEmailExists(ctx context.Context, email string) (bool, error)
	ListCustomers(ctx context.Context, f CustomerFilter) ([]models.Customer, error)
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error)
}

type OrderRepository interface {
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error)
}

// Tx is a transaction-scoped handle. It is only valid inside the callback
// passed to TxRunner.RunInTx.
type Tx interface {
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	// LockProducts returns the existing products among ids, locked exclusively
	// until the transaction ends. Missing ids are simply absent from the result.
	LockProducts(ctx context.Context, ids []int64) ([]models.Product, error)
	// SaveOrder inserts o with its product associations and assigns o.ID.
	SaveOrder(ctx context.Context, o *models.Order) error
	SaveProductStock(ctx context.Context, p *models.Product) error
}

// TxRunner commits when fn returns nil and rolls back on every other path.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
