// Package service holds the CRM use cases: order placement with stock
// reservation, and customer and product registration.
package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/obs"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/publisher"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/store"
)

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 50 * time.Millisecond
)

// OrderEvents publishes order lifecycle events.
type OrderEvents interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
}

// FanOut delivers every event to each of its targets, even when an earlier
// one fails.
type FanOut []OrderEvents

func (f FanOut) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	var errs []error
	for _, events := range f {
		if err := events.PublishOrderCreated(ctx, order); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder receives order placement measurements.
type Recorder interface {
	ObserveOrder(outcome string, d time.Duration)
	ObserveRetry()
	ObserveEvent(topic string, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOrder(string, time.Duration) {}
func (nopRecorder) ObserveRetry()                      {}
func (nopRecorder) ObserveEvent(string, error)         {}

type OrderService struct {
	txs      store.TxRunner
	orders   store.OrderRepository
	events   OrderEvents
	recorder Recorder
	logger   *slog.Logger

	maxAttempts int
	backoff     time.Duration
}

type OrderOption func(*OrderService)

func WithEvents(events OrderEvents) OrderOption {
	return func(s *OrderService) { s.events = events }
}

func WithRecorder(r Recorder) OrderOption {
	return func(s *OrderService) { s.recorder = r }
}

func WithLogger(l *slog.Logger) OrderOption {
	return func(s *OrderService) { s.logger = l }
}

// WithRetry sets how many times a transaction is attempted when the store
// reports a transient failure, and the base delay between attempts.
func WithRetry(maxAttempts int, backoff time.Duration) OrderOption {
	return func(s *OrderService) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		s.backoff = backoff
	}
}

func NewOrderService(txs store.TxRunner, orders store.OrderRepository, opts ...OrderOption) *OrderService {
	s := &OrderService{
		txs:         txs,
		orders:      orders,
		recorder:    nopRecorder{},
		logger:      obs.Discard(),
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder reserves one unit of every distinct product in productIDs for
// the customer and records the order with its total, all in one transaction.
// Either every effect commits or none does.
func (s *OrderService) PlaceOrder(ctx context.Context, customerID int64, productIDs []int64) (*models.Order, error) {
	start := time.Now()
	order, err := s.placeOrder(ctx, customerID, productIDs)

	outcome := "ok"
	if err != nil {
		outcome = string(apperr.KindOf(err))
	}
	s.recorder.ObserveOrder(outcome, time.Since(start))

	if err != nil {
		level := slog.LevelInfo
		if kind := apperr.KindOf(err); kind == apperr.KindInternal || kind == apperr.KindTransient {
			level = slog.LevelError
		}
		s.logger.Log(ctx, level, "order rejected",
			"customer_id", customerID, "product_ids", productIDs, "kind", outcome, "error", err)
		return nil, err
	}

	s.logger.Info("order placed",
		"order_id", order.ID, "customer_id", order.CustomerID,
		"product_ids", order.ProductIDs, "total_amount", order.TotalAmount.StringFixed(2))
	s.publish(ctx, order)
	return order, nil
}

func (s *OrderService) placeOrder(ctx context.Context, customerID int64, productIDs []int64) (*models.Order, error) {
	if len(productIDs) == 0 {
		return nil, apperr.InvalidArgument("at least one product is required")
	}
	ids := distinct(productIDs)

	for attempt := 1; ; attempt++ {
		order, err := s.tryPlaceOrder(ctx, customerID, ids)
		if err == nil || !apperr.IsRetryable(err) || attempt >= s.maxAttempts {
			return order, err
		}

		wait := backoffDelay(s.backoff, attempt)
		s.recorder.ObserveRetry()
		s.logger.Warn("transient store failure, retrying order",
			"customer_id", customerID, "attempt", attempt, "wait", wait.String(), "error", err)
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, apperr.Wrap(apperr.KindTransient, err, "order placement interrupted, retry the request")
		}
	}
}

func (s *OrderService) tryPlaceOrder(ctx context.Context, customerID int64, ids []int64) (*models.Order, error) {
	var order *models.Order
	err := s.txs.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.GetCustomer(ctx, customerID); err != nil {
			return storeErr(err, "customer "+strconv.FormatInt(customerID, 10)+" not found")
		}

		products, err := tx.LockProducts(ctx, ids)
		if err != nil {
			return storeErr(err, "product not found")
		}

		byID := make(map[int64]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}
		if len(byID) != len(ids) {
			return apperr.InvalidArgument("unknown product id(s): %s", joinIDs(missingIDs(ids, byID)))
		}
		for _, id := range ids {
			if p := byID[id]; p.Stock <= 0 {
				return apperr.Conflict("out of stock: %s", p.Name)
			}
		}

		total := decimal.Zero
		for _, p := range products {
			total = total.Add(p.Price)
		}
		if total.GreaterThanOrEqual(maxPrice) {
			return apperr.InvalidArgument("order total must be less than %s", maxPrice.String())
		}

		o := &models.Order{
			CustomerID:  customerID,
			ProductIDs:  sortedIDs(ids),
			TotalAmount: total,
		}
		if err := tx.SaveOrder(ctx, o); err != nil {
			return storeErr(err, "order references a missing record")
		}

		for _, p := range products {
			p.Stock--
			if err := tx.SaveProductStock(ctx, &p); err != nil {
				return storeErr(err, "product not found")
			}
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "record not found")
	}
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, order *models.Order) {
	if s.events == nil {
		return
	}
	err := s.events.PublishOrderCreated(ctx, order)
	s.recorder.ObserveEvent(publisher.OrderCreatedTopic, err)
	if err != nil {
		s.logger.Warn("failed to publish order event", "order_id", order.ID, "error", err)
	}
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	o, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, storeErr(err, "order "+strconv.FormatInt(id, 10)+" not found")
	}
	return o, nil
}

// ListOrders returns newest orders first; customerID zero lists every order.
func (s *OrderService) ListOrders(ctx context.Context, customerID int64) ([]models.Order, error) {
	orders, err := s.orders.ListOrders(ctx, store.OrderFilter{CustomerID: customerID})
	if err != nil {
		return nil, storeErr(err, "orders not found")
	}
	return orders, nil
}

// distinct drops repeated ids and keeps first-occurrence order.
func distinct(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func sortedIDs(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}

func missingIDs(ids []int64, found map[int64]models.Product) []int64 {
	var out []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
