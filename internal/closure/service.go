package closure

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-pedidos/internal/common"
	"github.com/noah-isme/backend-pedidos/internal/events"
	"github.com/noah-isme/backend-pedidos/internal/order"
	"github.com/noah-isme/backend-pedidos/internal/pricing"
)

// Closure is an immutable snapshot of the settlement at closing time. The
// date range labels the accounting period; it does not filter which orders
// are included (see DESIGN.md).
type Closure struct {
	ID             string                   `json:"id"`
	FromDate       string                   `json:"fromDate"`
	ToDate         string                   `json:"toDate"`
	CreatedAt      time.Time                `json:"createdAt"`
	OrdersCount    int                      `json:"ordersCount"`
	ProviderTotals map[string]pricing.Money `json:"providerTotals"`
	Totals         pricing.Totals           `json:"totals"`
}

// Orders supplies the settlement that a closure snapshots.
type Orders interface {
	Settlement() order.Settlement
}

// Store persists the closure history between restarts.
type Store interface {
	Save(ctx context.Context, key string, v any) error
	Load(ctx context.Context, key string, dest any) (bool, error)
}

// Locker serializes closure creation across instances.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

const (
	persistKey = "closures"
	lockKey    = "locks:closures:create"
)

// Service owns the closure history, most recent first.
type Service struct {
	mu      sync.RWMutex
	history []Closure

	orders  Orders
	store   Store
	events  *events.Bus
	locker  Locker
	lockTTL time.Duration
	now     func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Orders  Orders
	Store   Store
	Events  *events.Bus
	Locker  Locker
	LockTTL time.Duration
	Now     func() time.Time
}

// NewService constructs a Service, loading any persisted history.
func NewService(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	s := &Service{
		orders:  cfg.Orders,
		store:   cfg.Store,
		events:  cfg.Events,
		locker:  cfg.Locker,
		lockTTL: cfg.LockTTL,
		now:     cfg.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.lockTTL <= 0 {
		s.lockTTL = 10 * time.Second
	}
	if s.store != nil {
		var persisted []Closure
		found, err := s.store.Load(ctx, persistKey, &persisted)
		if err != nil {
			return nil, fmt.Errorf("closure: load history: %w", err)
		}
		if found {
			s.history = persisted
		}
	}
	return s, nil
}

// Create snapshots the current settlement into a new closure and prepends it
// to the history. The closing period must be a valid date range and there
// must be at least one committed order.
func (s *Service) Create(ctx context.Context, from, to string) (Closure, error) {
	period, err := common.ValidateDateRange(from, to)
	if err != nil {
		return Closure{}, err
	}
	if s.orders == nil {
		return Closure{}, fmt.Errorf("closure: order source not configured")
	}

	var created Closure
	run := func(ctx context.Context) error {
		settlement := s.orders.Settlement()
		if settlement.OrdersCount == 0 {
			return common.Rejection(common.CodeNoOrdersToClose, "there are no orders to close")
		}
		totals := make(map[string]pricing.Money, len(settlement.ProviderTotals))
		for provider, amount := range settlement.ProviderTotals {
			totals[provider] = amount
		}
		c := Closure{
			ID:             uuid.NewString(),
			FromDate:       period.From,
			ToDate:         period.To,
			CreatedAt:      s.now().UTC(),
			OrdersCount:    settlement.OrdersCount,
			ProviderTotals: totals,
			Totals:         settlement.Totals,
		}

		s.mu.Lock()
		next := make([]Closure, 0, len(s.history)+1)
		next = append(next, c)
		next = append(next, s.history...)
		if err := s.persist(ctx, next); err != nil {
			s.mu.Unlock()
			return err
		}
		s.history = next
		s.mu.Unlock()
		created = c
		return nil
	}

	if s.locker != nil {
		err = s.locker.WithLock(ctx, lockKey, s.lockTTL, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return Closure{}, err
	}

	s.emit(ctx, events.TopicClosureCreated, created.ID, map[string]any{
		"fromDate":    created.FromDate,
		"toDate":      created.ToDate,
		"ordersCount": created.OrdersCount,
	})
	return created, nil
}

// History returns a copy of the closure history, most recent first.
func (s *Service) History() []Closure {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Closure, len(s.history))
	for i, c := range s.history {
		out[i] = cloneClosure(c)
	}
	return out
}

// Count reports the number of recorded closures.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

func (s *Service) persist(ctx context.Context, history []Closure) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, persistKey, history); err != nil {
		return fmt.Errorf("closure: save history: %w", err)
	}
	return nil
}

func (s *Service) emit(ctx context.Context, topic, aggregateID string, payload any) {
	if s.events == nil {
		return
	}
	_, _ = s.events.Emit(ctx, topic, aggregateID, payload)
}

func cloneClosure(c Closure) Closure {
	totals := make(map[string]pricing.Money, len(c.ProviderTotals))
	for provider, amount := range c.ProviderTotals {
		totals[provider] = amount
	}
	c.ProviderTotals = totals
	return c
}
