package db

import (
	"context"
	"fmt"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/store"
)

const productColumns = "id, name, price, stock, created_at"

type ProductRepository struct {
	db querier
}

func NewProductRepository(database *PostgresDB) *ProductRepository {
	return &ProductRepository{db: database.Conn}
}

var _ store.ProductRepository = (*ProductRepository)(nil)

// CreateProduct inserts p and fills in its id and creation time.
func (r *ProductRepository) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (name, price, stock)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, p.Name, p.Price, p.Stock).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return classify("failed to create product", err)
	}
	return nil
}

func (r *ProductRepository) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt)
	if err != nil {
		return nil, classify(fmt.Sprintf("failed to get product %d", id), err)
	}
	return &p, nil
}

func (r *ProductRepository) ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, error) {
	query := "SELECT " + productColumns + " FROM products"
	if f.InStock != nil {
		if *f.InStock {
			query += " WHERE stock > 0"
		} else {
			query += " WHERE stock = 0"
		}
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify("failed to query products", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanProducts(rows rowScanner) ([]models.Product, error) {
	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("failed to read products", err)
	}
	return products, nil
}
