package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-pedidos/internal/catalog"
	"github.com/noah-isme/backend-pedidos/internal/common"
	"github.com/noah-isme/backend-pedidos/internal/events"
	"github.com/noah-isme/backend-pedidos/internal/obs"
	"github.com/noah-isme/backend-pedidos/internal/pricing"
)

// Catalog is the product lookup the order service needs.
type Catalog interface {
	FindByID(id string) (catalog.Product, bool)
	Count() int
}

// Order is a committed order. Immutable after commit, except that deleting a
// product prunes its line items; an order left without items is removed.
type Order struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Items []pricing.Line `json:"items"`
}

// Builder is the single in-progress order. It accumulates line items between
// Start and Commit and is reset on commit. Deliberately not persisted.
type Builder struct {
	Active bool             `json:"active"`
	Name   string           `json:"name"`
	Period common.DateRange `json:"period"`
	Items  []pricing.Line   `json:"items"`
}

// View is an order joined with its resolved items and totals at read time.
// Line items whose product no longer exists are omitted from Items and from
// the money amounts.
type View struct {
	Order
	Resolved []pricing.ResolvedItem `json:"resolvedItems"`
	Totals   pricing.Totals         `json:"totals"`
}

// Settlement is the running aggregate across all committed orders.
type Settlement struct {
	OrdersCount    int                      `json:"ordersCount"`
	Totals         pricing.Totals           `json:"totals"`
	ProviderTotals map[string]pricing.Money `json:"providerTotals"`
}

// Service owns the committed order list and the order builder. Both are
// process state with the service mutex as their single writer.
type Service struct {
	mu      sync.RWMutex
	orders  []Order
	builder Builder

	catalog Catalog
	events  *events.Bus
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Catalog Catalog
	Events  *events.Bus
}

// NewService constructs a Service. Orders and builder state start empty on
// every boot; they are not persisted.
func NewService(cfg ServiceConfig) *Service {
	return &Service{catalog: cfg.Catalog, events: cfg.Events}
}

// Start transitions the builder from idle to building for the given period.
// It requires a non-empty catalog and a valid date range, and refuses to
// restart a builder that is already building.
func (s *Service) Start(from, to string) (Builder, error) {
	period, err := common.ValidateDateRange(from, to)
	if err != nil {
		return Builder{}, err
	}
	if s.catalog == nil || s.catalog.Count() == 0 {
		return Builder{}, common.Rejection(common.CodeEmptyCatalog, "there are no products to sell")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builder.Active {
		return Builder{}, common.NewAppError(common.CodeOrderAlreadyStarted, "an order is already in progress", http.StatusConflict, nil)
	}
	s.builder = Builder{Active: true, Period: period}
	return s.snapshotBuilder(), nil
}

// AddItem appends a line item to the building order. The product must exist
// and qty must be a positive integer; a rejected add leaves the builder
// unchanged.
func (s *Service) AddItem(productID string, qty int) (Builder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.builder.Active {
		return Builder{}, common.Rejection(common.CodeOrderNotStarted, "start an order before adding items")
	}
	if qty <= 0 {
		return Builder{}, common.Rejection(common.CodeInvalidLineItem, "qty must be a positive integer")
	}
	if s.catalog == nil {
		return Builder{}, errors.New("order: catalog not configured")
	}
	if _, ok := s.catalog.FindByID(productID); !ok {
		return Builder{}, common.Rejection(common.CodeInvalidLineItem, "product does not exist")
	}
	s.builder.Items = append(s.builder.Items, pricing.Line{ProductID: productID, Qty: qty})
	return s.snapshotBuilder(), nil
}

// RemoveItem drops the line item at the given position. An out-of-range index
// is a no-op.
func (s *Service) RemoveItem(index int) (Builder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.builder.Active {
		return Builder{}, common.Rejection(common.CodeOrderNotStarted, "no order in progress")
	}
	if index >= 0 && index < len(s.builder.Items) {
		s.builder.Items = append(s.builder.Items[:index], s.builder.Items[index+1:]...)
	}
	return s.snapshotBuilder(), nil
}

// Commit turns the building order into a committed Order and resets the
// builder to idle. The committed order owns an independent copy of the items;
// later builder activity cannot alias it.
func (s *Service) Commit(ctx context.Context, name string) (Order, error) {
	s.mu.Lock()
	if !s.builder.Active {
		s.mu.Unlock()
		return Order{}, common.Rejection(common.CodeOrderNotStarted, "start an order before committing")
	}
	if _, err := common.ValidateDateRange(s.builder.Period.From, s.builder.Period.To); err != nil {
		s.mu.Unlock()
		return Order{}, err
	}
	if len(s.builder.Items) == 0 {
		s.mu.Unlock()
		return Order{}, common.Rejection(common.CodeEmptyOrder, "the order has no items")
	}
	committed := Order{
		ID:    uuid.NewString(),
		Name:  strings.TrimSpace(name),
		Items: cloneLines(s.builder.Items),
	}
	s.orders = append(s.orders, committed)
	s.builder = Builder{}
	s.mu.Unlock()

	s.emit(ctx, events.TopicOrderCommitted, committed.ID, map[string]any{
		"name":  committed.Name,
		"items": len(committed.Items),
	})
	return committed, nil
}

// Current returns a copy of the builder state.
func (s *Service) Current() Builder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotBuilder()
}

// Orders returns an independent copy of the committed order list.
func (s *Service) Orders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Order, len(s.orders))
	for i, o := range s.orders {
		out[i] = Order{ID: o.ID, Name: o.Name, Items: cloneLines(o.Items)}
	}
	return out
}

// Views resolves every committed order against the current catalog.
func (s *Service) Views() []View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	views := make([]View, 0, len(s.orders))
	for _, o := range s.orders {
		resolved := pricing.Resolve(o.Items, s.lookup())
		views = append(views, View{
			Order:    Order{ID: o.ID, Name: o.Name, Items: cloneLines(o.Items)},
			Resolved: resolved,
			Totals:   pricing.Sum(resolved),
		})
	}
	return views
}

// Settlement aggregates every committed order under one read lock, so the
// count, the totals and the provider split all describe the same instant.
func (s *Service) Settlement() Settlement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := Settlement{
		OrdersCount:    len(s.orders),
		ProviderTotals: make(map[string]pricing.Money),
	}
	for _, o := range s.orders {
		resolved := pricing.Resolve(o.Items, s.lookup())
		result.Totals = pricing.Add(result.Totals, pricing.Sum(resolved))
		pricing.MergeProviderTotals(result.ProviderTotals, pricing.SumByProvider(resolved))
	}
	return result
}

// BuilderResolved resolves the building order's items for display.
func (s *Service) BuilderResolved() ([]pricing.ResolvedItem, pricing.Totals) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resolved := pricing.Resolve(s.builder.Items, s.lookup())
	return resolved, pricing.Sum(resolved)
}

// Notify implements events.Notifier. On product deletion it prunes every line
// item referencing the product from the builder and from all committed
// orders, and drops orders left without items.
func (s *Service) Notify(_ context.Context, event events.Event) error {
	if event.Topic != events.TopicProductDeleted {
		return nil
	}
	productID := event.AggregateID
	if productID == "" {
		return nil
	}

	s.mu.Lock()
	pruned := 0
	s.builder.Items, pruned = pruneLines(s.builder.Items, productID, pruned)
	kept := s.orders[:0]
	for _, o := range s.orders {
		o.Items, pruned = pruneLines(o.Items, productID, pruned)
		if len(o.Items) > 0 {
			kept = append(kept, o)
		}
	}
	s.orders = kept
	s.mu.Unlock()

	obs.AddCascadePrunedItems(pruned)
	return nil
}

func (s *Service) snapshotBuilder() Builder {
	b := s.builder
	b.Items = cloneLines(s.builder.Items)
	return b
}

func (s *Service) lookup() pricing.Lookup {
	if s.catalog == nil {
		return func(string) (catalog.Product, bool) { return catalog.Product{}, false }
	}
	return s.catalog.FindByID
}

func (s *Service) emit(ctx context.Context, topic, aggregateID string, payload any) {
	if s.events == nil {
		return
	}
	_, _ = s.events.Emit(ctx, topic, aggregateID, payload)
}

func cloneLines(lines []pricing.Line) []pricing.Line {
	if lines == nil {
		return nil
	}
	out := make([]pricing.Line, len(lines))
	copy(out, lines)
	return out
}

func pruneLines(lines []pricing.Line, productID string, pruned int) ([]pricing.Line, int) {
	kept := lines[:0]
	for _, line := range lines {
		if line.ProductID == productID {
			pruned++
			continue
		}
		kept = append(kept, line)
	}
	return kept, pruned
}

// MarshalJSON keeps the items array non-null for idle builders so clients can
// iterate without a nil check.
func (b Builder) MarshalJSON() ([]byte, error) {
	type alias Builder
	a := alias(b)
	if a.Items == nil {
		a.Items = []pricing.Line{}
	}
	return json.Marshal(a)
}
