package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/store"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	maxNameLen  = 255
	maxEmailLen = 254
	maxPhoneLen = 20
)

type CustomerService struct {
	repo   store.CustomerRepository
	logger *slog.Logger
}

func NewCustomerService(repo store.CustomerRepository, logger *slog.Logger) *CustomerService {
	return &CustomerService{repo: repo, logger: logger}
}

// Create validates and registers one customer. Emails are unique.
func (s *CustomerService) Create(ctx context.Context, req models.CreateCustomerRequest) (*models.Customer, error) {
	c, err := newCustomer(req)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.CustomerEmailExists(ctx, c.Email)
	if err != nil {
		return nil, storeErr(err, "customer not found")
	}
	if exists {
		return nil, apperr.New(apperr.KindAlreadyExists, "email already exists")
	}

	if err := s.repo.CreateCustomer(ctx, c); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Wrap(apperr.KindAlreadyExists, err, "email already exists")
		}
		return nil, storeErr(err, "customer not found")
	}

	s.logger.Info("customer created", "customer_id", c.ID)
	return c, nil
}

// BulkCreate registers each customer independently. Failures are collected
// per item and never undo customers already created.
func (s *CustomerService) BulkCreate(ctx context.Context, reqs []models.CreateCustomerRequest) models.BulkCreateCustomersResult {
	result := models.BulkCreateCustomersResult{
		Customers: []models.Customer{},
		Errors:    []string{},
	}
	for i, req := range reqs {
		c, err := s.Create(ctx, req)
		if err != nil {
			result.Errors = append(result.Errors, bulkError(i, req, err))
			continue
		}
		result.Customers = append(result.Customers, *c)
	}
	s.logger.Info("bulk customer registration",
		"created", len(result.Customers), "failed", len(result.Errors))
	return result
}

func bulkError(i int, req models.CreateCustomerRequest, err error) string {
	if apperr.KindOf(err) == apperr.KindAlreadyExists {
		return "Duplicate email: " + strings.TrimSpace(req.Email)
	}
	return fmt.Sprintf("customer %d: %s", i, apperr.MessageOf(err))
}

func (s *CustomerService) List(ctx context.Context, search string) ([]models.Customer, error) {
	customers, err := s.repo.ListCustomers(ctx, store.CustomerFilter{Search: strings.TrimSpace(search)})
	if err != nil {
		return nil, storeErr(err, "customers not found")
	}
	return customers, nil
}

func (s *CustomerService) Get(ctx context.Context, id int64) (*models.Customer, error) {
	c, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return nil, storeErr(err, "customer "+strconv.FormatInt(id, 10)+" not found")
	}
	return c, nil
}

func newCustomer(req models.CreateCustomerRequest) (*models.Customer, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)

	switch {
	case name == "":
		return nil, apperr.InvalidArgument("name is required")
	case utf8.RuneCountInString(name) > maxNameLen:
		return nil, apperr.InvalidArgument("name must be at most %d characters", maxNameLen)
	case len(email) > maxEmailLen || !emailPattern.MatchString(email):
		return nil, apperr.InvalidArgument("invalid email format")
	}

	c := &models.Customer{Name: name, Email: email}
	if req.Phone != nil {
		if phone := strings.TrimSpace(*req.Phone); phone != "" {
			if utf8.RuneCountInString(phone) > maxPhoneLen {
				return nil, apperr.InvalidArgument("phone must be at most %d characters", maxPhoneLen)
			}
			c.Phone = &phone
		}
	}
	return c, nil
}
