package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/obs"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/store"
)

func strptr(s string) *string { return &s }

func TestCustomerCreate(t *testing.T) {
	ctx := context.Background()
	svc := NewCustomerService(store.NewMemoryStore(), obs.Discard())

	c, err := svc.Create(ctx, models.CreateCustomerRequest{
		Name:  "  Alice ",
		Email: "alice@example.com",
		Phone: strptr(" +1-555-0100 "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", c.Name)
	require.NotNil(t, c.Phone)
	assert.Equal(t, "+1-555-0100", *c.Phone)

	_, err = svc.Create(ctx, models.CreateCustomerRequest{Name: "Other", Email: "alice@example.com"})
	requireKind(t, err, apperr.KindAlreadyExists)
	assert.Equal(t, "email already exists", apperr.MessageOf(err))

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	_, err = svc.Get(ctx, 404)
	requireKind(t, err, apperr.KindNotFound)
}

func TestCustomerValidation(t *testing.T) {
	svc := NewCustomerService(store.NewMemoryStore(), obs.Discard())

	tests := []struct {
		name string
		req  models.CreateCustomerRequest
		msg  string
	}{
		{"blank name", models.CreateCustomerRequest{Name: "  ", Email: "a@b.co"}, "name is required"},
		{"long name", models.CreateCustomerRequest{Name: strings.Repeat("x", 256), Email: "a@b.co"}, "name must be at most 255 characters"},
		{"no at", models.CreateCustomerRequest{Name: "A", Email: "example.com"}, "invalid email format"},
		{"no dot", models.CreateCustomerRequest{Name: "A", Email: "a@localhost"}, "invalid email format"},
		{"space", models.CreateCustomerRequest{Name: "A", Email: "a b@example.com"}, "invalid email format"},
		{"long phone", models.CreateCustomerRequest{Name: "A", Email: "a@b.co", Phone: strptr(strings.Repeat("1", 21))}, "phone must be at most 20 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			requireKind(t, err, apperr.KindInvalidArgument)
			assert.Equal(t, tt.msg, apperr.MessageOf(err))
		})
	}
}

func TestCustomerBlankPhoneIsNil(t *testing.T) {
	svc := NewCustomerService(store.NewMemoryStore(), obs.Discard())
	c, err := svc.Create(context.Background(), models.CreateCustomerRequest{Name: "A", Email: "a@b.co", Phone: strptr(" ")})
	require.NoError(t, err)
	assert.Nil(t, c.Phone)
}

func TestCustomerBulkCreateCollectsErrors(t *testing.T) {
	ctx := context.Background()
	svc := NewCustomerService(store.NewMemoryStore(), obs.Discard())
	_, err := svc.Create(ctx, models.CreateCustomerRequest{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)

	res := svc.BulkCreate(ctx, []models.CreateCustomerRequest{
		{Name: "Bob", Email: "bob@example.com"},
		{Name: "Alice again", Email: "alice@example.com"},
		{Name: "Carol", Email: "not-an-email"},
		{Name: "Bob twin", Email: "bob@example.com"},
		{Name: "Dave", Email: "dave@example.com"},
	})

	require.Len(t, res.Customers, 2)
	assert.Equal(t, "Bob", res.Customers[0].Name)
	assert.Equal(t, "Dave", res.Customers[1].Name)
	assert.Equal(t, []string{
		"Duplicate email: alice@example.com",
		"customer 2: invalid email format",
		"Duplicate email: bob@example.com",
	}, res.Errors)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCustomerBulkCreateEmpty(t *testing.T) {
	res := NewCustomerService(store.NewMemoryStore(), obs.Discard()).BulkCreate(context.Background(), nil)
	assert.NotNil(t, res.Customers)
	assert.NotNil(t, res.Errors)
	assert.Empty(t, res.Customers)
}

func TestCustomerSearch(t *testing.T) {
	ctx := context.Background()
	svc := NewCustomerService(store.NewMemoryStore(), obs.Discard())
	for i, name := range []string{"Alice", "Bob", "Alicia"} {
		_, err := svc.Create(ctx, models.CreateCustomerRequest{Name: name, Email: fmt.Sprintf("u%d@example.com", i)})
		require.NoError(t, err)
	}

	found, err := svc.List(ctx, " ali ")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = svc.List(ctx, "u1@")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Bob", found[0].Name)
}

// racingRepo reports the email as free but fails the insert, as a
// concurrent registration would.
type racingRepo struct {
	*store.MemoryStore
}

func (racingRepo) CustomerEmailExists(context.Context, string) (bool, error) { return false, nil }

func (racingRepo) CreateCustomer(context.Context, *models.Customer) error {
	return fmt.Errorf("insert: %w", store.ErrDuplicate)
}

func TestCustomerCreateUniqueViolationRace(t *testing.T) {
	svc := NewCustomerService(racingRepo{store.NewMemoryStore()}, obs.Discard())
	_, err := svc.Create(context.Background(), models.CreateCustomerRequest{Name: "A", Email: "a@b.co"})
	requireKind(t, err, apperr.KindAlreadyExists)
}
