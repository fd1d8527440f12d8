package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/store"
)

const customerColumns = "id, name, email, phone, created_at"

type CustomerRepository struct {
	db querier
}

func NewCustomerRepository(database *PostgresDB) *CustomerRepository {
	return &CustomerRepository{db: database.Conn}
}

var _ store.CustomerRepository = (*CustomerRepository)(nil)

// CreateCustomer inserts c and fills in its id and creation time.
func (r *CustomerRepository) CreateCustomer(ctx context.Context, c *models.Customer) error {
	query := `
		INSERT INTO customers (name, email, phone)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, c.Name, c.Email, c.Phone).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return classify("failed to create customer", err)
	}
	return nil
}

func (r *CustomerRepository) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	return getCustomer(ctx, r.db, id)
}

func (r *CustomerRepository) CustomerEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM customers WHERE email = $1)", email).Scan(&exists)
	if err != nil {
		return false, classify("failed to check customer email", err)
	}
	return exists, nil
}

func (r *CustomerRepository) ListCustomers(ctx context.Context, f store.CustomerFilter) ([]models.Customer, error) {
	query := "SELECT " + customerColumns + " FROM customers"
	var args []any
	if f.Search != "" {
		query += ` WHERE name ILIKE $1 ESCAPE '\' OR email ILIKE $1 ESCAPE '\'`
		args = append(args, "%"+escapeLike(f.Search)+"%")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("failed to query customers", err)
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("failed to read customers", err)
	}
	return customers, nil
}

func getCustomer(ctx context.Context, q querier, id int64) (*models.Customer, error) {
	var c models.Customer
	err := q.QueryRowContext(ctx, "SELECT "+customerColumns+" FROM customers WHERE id = $1", id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt)
	if err != nil {
		return nil, classify(fmt.Sprintf("failed to get customer %d", id), err)
	}
	return &c, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
