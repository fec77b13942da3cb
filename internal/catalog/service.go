package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-pedidos/internal/common"
	"github.com/noah-isme/backend-pedidos/internal/events"
)

// Store persists the product list between restarts.
type Store interface {
	Save(ctx context.Context, key string, v any) error
	Load(ctx context.Context, key string, dest any) (bool, error)
}

const persistKey = "products"

// Service owns the product catalog. It is the single writer for the product
// list; all access goes through its mutex.
type Service struct {
	mu       sync.RWMutex
	products []Product

	store  Store
	events *events.Bus
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store  Store
	Events *events.Bus
}

// NewService constructs a Service, loading any persisted catalog.
func NewService(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	s := &Service{store: cfg.Store, events: cfg.Events}
	if s.store != nil {
		var persisted []Product
		found, err := s.store.Load(ctx, persistKey, &persisted)
		if err != nil {
			return nil, fmt.Errorf("catalog: load products: %w", err)
		}
		if found {
			s.products = persisted
		}
	}
	return s, nil
}

// Upsert validates and stores a product. An empty id creates a new product;
// a matching id replaces the existing product in place, preserving its
// position in the catalog. Invalid input leaves the catalog untouched.
func (s *Service) Upsert(ctx context.Context, p Product) (Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Provider = strings.TrimSpace(p.Provider)
	if p.Name == "" {
		return Product{}, common.Rejection(common.CodeInvalidProduct, "product name is required")
	}
	if p.Provider == "" {
		return Product{}, common.Rejection(common.CodeInvalidProduct, "product provider is required")
	}
	if p.Cost < 0 || p.FeeGaston < 0 || p.FeeMaria < 0 {
		return Product{}, common.Rejection(common.CodeInvalidProduct, "cost, gaston and maria must be zero or greater")
	}
	if strings.TrimSpace(p.ID) == "" {
		p.ID = uuid.NewString()
	}

	s.mu.Lock()
	next := make([]Product, len(s.products))
	copy(next, s.products)
	replaced := false
	for i := range next {
		if next[i].ID == p.ID {
			next[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, p)
	}
	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		return Product{}, err
	}
	s.products = next
	s.mu.Unlock()

	s.emit(ctx, events.TopicProductUpserted, p.ID, map[string]any{"name": p.Name, "provider": p.Provider})
	return p, nil
}

// Remove deletes a product by id. Callers confirm the deletion with the
// operator before invoking; the cascade into the order builder and committed
// orders runs through the product.deleted event.
func (s *Service) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	index := -1
	for i := range s.products {
		if s.products[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return common.NotFound("product not found")
	}
	removed := s.products[index]
	next := make([]Product, 0, len(s.products)-1)
	next = append(next, s.products[:index]...)
	next = append(next, s.products[index+1:]...)
	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.products = next
	s.mu.Unlock()

	s.emit(ctx, events.TopicProductDeleted, removed.ID, map[string]any{"name": removed.Name})
	return nil
}

// FindByID returns the product with the given id.
func (s *Service) FindByID(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// List returns a copy of the catalog in insertion order.
func (s *Service) List() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

// Count reports the number of products.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

func (s *Service) persist(ctx context.Context, products []Product) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, persistKey, products); err != nil {
		return fmt.Errorf("catalog: save products: %w", err)
	}
	return nil
}

func (s *Service) emit(ctx context.Context, topic, aggregateID string, payload any) {
	if s.events == nil {
		return
	}
	// Cascade errors surface through the notifiers' own logging; the catalog
	// mutation itself already succeeded.
	_, _ = s.events.Emit(ctx, topic, aggregateID, payload)
}
