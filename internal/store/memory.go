package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
)

// MemoryStore keeps every record in process memory. Product rows carry their
// own exclusive locks so transactions on disjoint products run in parallel.
type MemoryStore struct {
	mu             sync.RWMutex
	nextCustomerID int64
	nextProductID  int64
	nextOrderID    int64
	customers      map[int64]models.Customer
	products       map[int64]models.Product
	orders         map[int64]models.Order
	rowLocks       map[int64]chan struct{}

	lockTimeout time.Duration
	now         func() time.Time
}

type MemoryOption func(*MemoryStore)

// WithLockTimeout bounds how long a transaction waits for a product row lock.
// Zero waits until the context is done.
func WithLockTimeout(d time.Duration) MemoryOption {
	return func(m *MemoryStore) { m.lockTimeout = d }
}

func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) { m.now = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		nextCustomerID: 1,
		nextProductID:  1,
		nextOrderID:    1,
		customers:      make(map[int64]models.Customer),
		products:       make(map[int64]models.Product),
		orders:         make(map[int64]models.Order),
		rowLocks:       make(map[int64]chan struct{}),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var (
	_ CustomerRepository = (*MemoryStore)(nil)
	_ ProductRepository  = (*MemoryStore)(nil)
	_ OrderRepository    = (*MemoryStore)(nil)
	_ TxRunner           = (*MemoryStore)(nil)
)

func (m *MemoryStore) CreateCustomer(_ context.Context, c *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.customers {
		if existing.Email == c.Email {
			return fmt.Errorf("create customer %q: %w", c.Email, ErrDuplicate)
		}
	}
	c.ID = m.nextCustomerID
	m.nextCustomerID++
	c.CreatedAt = m.now().UTC()
	m.customers[c.ID] = copyCustomer(*c)
	return nil
}

func (m *MemoryStore) GetCustomer(_ context.Context, id int64) (*models.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}
	cp := copyCustomer(c)
	return &cp, nil
}

func (m *MemoryStore) CustomerEmailExists(_ context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.customers {
		if c.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) ListCustomers(_ context.Context, f CustomerFilter) ([]models.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	search := strings.ToLower(f.Search)
	out := make([]models.Customer, 0, len(m.customers))
	for _, c := range m.customers {
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Name), search) &&
			!strings.Contains(strings.ToLower(c.Email), search) {
			continue
		}
		out = append(out, copyCustomer(c))
	}
	slices.SortFunc(out, func(a, b models.Customer) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *MemoryStore) CreateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextProductID
	m.nextProductID++
	p.CreatedAt = m.now().UTC()
	m.products[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return &p, nil
}

func (m *MemoryStore) ListProducts(_ context.Context, f ProductFilter) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		if f.InStock != nil && *f.InStock != (p.Stock > 0) {
			continue
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b models.Product) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *MemoryStore) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	cp := copyOrder(o)
	return &cp, nil
}

// ListOrders returns newest orders first.
func (m *MemoryStore) ListOrders(_ context.Context, f OrderFilter) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if f.CustomerID != 0 && o.CustomerID != f.CustomerID {
			continue
		}
		out = append(out, copyOrder(o))
	}
	slices.SortFunc(out, func(a, b models.Order) int { return cmp.Compare(b.ID, a.ID) })
	return out, nil
}

func (m *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx := &memoryTx{
		store:  m,
		locked: make(map[int64]bool),
		stock:  make(map[int64]int64),
	}
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit: %w: %w", ErrTransient, err)
	}
	tx.commit()
	return nil
}

func (m *MemoryStore) rowLock(id int64) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.rowLocks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		m.rowLocks[id] = ch
	}
	return ch
}

// memoryTx stages writes and applies them in one step at commit.
type memoryTx struct {
	store    *MemoryStore
	locked   map[int64]bool
	lockList []int64
	stock    map[int64]int64
	orders   []models.Order
}

func (t *memoryTx) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	return t.store.GetCustomer(ctx, id)
}

func (t *memoryTx) LockProducts(ctx context.Context, ids []int64) ([]models.Product, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	t.store.mu.RLock()
	existing := make([]int64, 0, len(sorted))
	for _, id := range sorted {
		if _, ok := t.store.products[id]; ok {
			existing = append(existing, id)
		}
	}
	t.store.mu.RUnlock()

	// Ascending id order keeps concurrent transactions from deadlocking.
	for _, id := range existing {
		if t.locked[id] {
			continue
		}
		if err := t.acquire(ctx, id); err != nil {
			return nil, err
		}
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	out := make([]models.Product, 0, len(existing))
	for _, id := range existing {
		p := t.store.products[id]
		if staged, ok := t.stock[id]; ok {
			p.Stock = staged
		}
		out = append(out, p)
	}
	return out, nil
}

func (t *memoryTx) acquire(ctx context.Context, id int64) error {
	ch := t.store.rowLock(id)

	var timeout <-chan time.Time
	if d := t.store.lockTimeout; d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case ch <- struct{}{}:
		t.locked[id] = true
		t.lockList = append(t.lockList, id)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("lock product %d: %w: %w", id, ErrTransient, ctx.Err())
	case <-timeout:
		return fmt.Errorf("lock product %d: %w: lock wait exceeded %s", id, ErrTransient, t.store.lockTimeout)
	}
}

func (t *memoryTx) SaveOrder(_ context.Context, o *models.Order) error {
	if len(o.ProductIDs) == 0 {
		return fmt.Errorf("save order: no products")
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if _, ok := t.store.customers[o.CustomerID]; !ok {
		return fmt.Errorf("save order: customer %d: %w", o.CustomerID, ErrNotFound)
	}
	for _, id := range o.ProductIDs {
		if _, ok := t.store.products[id]; !ok {
			return fmt.Errorf("save order: product %d: %w", id, ErrNotFound)
		}
	}
	o.ID = t.store.nextOrderID
	t.store.nextOrderID++
	o.CreatedAt = t.store.now().UTC()
	t.orders = append(t.orders, copyOrder(*o))
	return nil
}

func (t *memoryTx) SaveProductStock(_ context.Context, p *models.Product) error {
	if !t.locked[p.ID] {
		return fmt.Errorf("save stock: product %d is not locked by this transaction", p.ID)
	}
	if p.Stock < 0 {
		return fmt.Errorf("save stock: product %d: stock must be non-negative, got %d", p.ID, p.Stock)
	}
	t.stock[p.ID] = p.Stock
	return nil
}

func (t *memoryTx) commit() {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for id, stock := range t.stock {
		p := t.store.products[id]
		p.Stock = stock
		t.store.products[id] = p
	}
	for _, o := range t.orders {
		t.store.orders[o.ID] = o
	}
}

func (t *memoryTx) release() {
	for _, id := range t.lockList {
		<-t.store.rowLock(id)
	}
	t.lockList = nil
	clear(t.locked)
}

func copyCustomer(c models.Customer) models.Customer {
	if c.Phone != nil {
		phone := *c.Phone
		c.Phone = &phone
	}
	return c
}

func copyOrder(o models.Order) models.Order {
	ids := slices.Clone(o.ProductIDs)
	slices.Sort(ids)
	o.ProductIDs = slices.Compact(ids)
	return o
}
