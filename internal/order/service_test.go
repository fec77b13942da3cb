package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pedidos/internal/catalog"
	"github.com/noah-isme/backend-pedidos/internal/common"
	"github.com/noah-isme/backend-pedidos/internal/events"
)

type fixedCatalog struct {
	products []catalog.Product
}

func (f *fixedCatalog) FindByID(id string) (catalog.Product, bool) {
	for _, p := range f.products {
		if p.ID == id {
			return p, true
		}
	}
	return catalog.Product{}, false
}

func (f *fixedCatalog) Count() int { return len(f.products) }

func twoProducts() *fixedCatalog {
	return &fixedCatalog{products: []catalog.Product{
		{ID: "p1", Name: "Empanada", Provider: "X", Cost: 500, FeeGaston: 50, FeeMaria: 25},
		{ID: "p2", Name: "Chipa", Provider: "Y", Cost: 300, FeeGaston: 20, FeeMaria: 10},
	}}
}

func startedService(t *testing.T, cat Catalog) *Service {
	t.Helper()
	svc := NewService(ServiceConfig{Catalog: cat})
	_, err := svc.Start("2026-01-01", "2026-01-31")
	require.NoError(t, err)
	return svc
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*common.AppError)
	require.True(t, ok, "expected AppError, got %T", err)
	require.Equal(t, code, appErr.Code)
}

func TestStartRequiresProducts(t *testing.T) {
	svc := NewService(ServiceConfig{Catalog: &fixedCatalog{}})
	_, err := svc.Start("2026-01-01", "2026-01-31")
	requireCode(t, err, common.CodeEmptyCatalog)
}

func TestStartRequiresValidDateRange(t *testing.T) {
	svc := NewService(ServiceConfig{Catalog: twoProducts()})

	_, err := svc.Start("", "2026-01-31")
	requireCode(t, err, common.CodeInvalidDateRange)

	_, err = svc.Start("2026-02-01", "2026-01-31")
	requireCode(t, err, common.CodeInvalidDateRange)

	_, err = svc.Start("not-a-date", "2026-01-31")
	requireCode(t, err, common.CodeInvalidDateRange)
}

func TestStartWhileBuildingConflicts(t *testing.T) {
	svc := startedService(t, twoProducts())
	_, err := svc.Start("2026-02-01", "2026-02-28")
	requireCode(t, err, common.CodeOrderAlreadyStarted)
}

func TestAddItemRequiresStartedOrder(t *testing.T) {
	svc := NewService(ServiceConfig{Catalog: twoProducts()})
	_, err := svc.AddItem("p1", 1)
	requireCode(t, err, common.CodeOrderNotStarted)
}

func TestAddItemRejectsNonPositiveQty(t *testing.T) {
	svc := startedService(t, twoProducts())
	for _, qty := range []int{0, -1} {
		_, err := svc.AddItem("p1", qty)
		requireCode(t, err, common.CodeInvalidLineItem)
	}
	require.Empty(t, svc.Current().Items)
}

func TestAddItemRejectsUnknownProduct(t *testing.T) {
	svc := startedService(t, twoProducts())
	_, err := svc.AddItem("ghost", 1)
	requireCode(t, err, common.CodeInvalidLineItem)
	require.Empty(t, svc.Current().Items)
}

func TestRemoveItemOutOfRangeIsNoOp(t *testing.T) {
	svc := startedService(t, twoProducts())
	_, err := svc.AddItem("p1", 2)
	require.NoError(t, err)

	for _, index := range []int{-1, 1, 99} {
		b, err := svc.RemoveItem(index)
		require.NoError(t, err)
		require.Len(t, b.Items, 1)
	}

	b, err := svc.RemoveItem(0)
	require.NoError(t, err)
	require.Empty(t, b.Items)
}

func TestCommitRequiresItems(t *testing.T) {
	svc := startedService(t, twoProducts())
	_, err := svc.Commit(context.Background(), "Don Ramon")
	requireCode(t, err, common.CodeEmptyOrder)
}

func TestCommitResetsBuilderAndOwnsItems(t *testing.T) {
	svc := startedService(t, twoProducts())
	_, err := svc.AddItem("p1", 2)
	require.NoError(t, err)
	_, err = svc.AddItem("p2", 1)
	require.NoError(t, err)

	committed, err := svc.Commit(context.Background(), "  Don Ramon  ")
	require.NoError(t, err)
	require.NotEmpty(t, committed.ID)
	require.Equal(t, "Don Ramon", committed.Name)
	require.Len(t, committed.Items, 2)

	current := svc.Current()
	require.False(t, current.Active)
	require.Empty(t, current.Items)

	// A fresh builder must not alias the committed order's items.
	_, err = svc.Start("2026-02-01", "2026-02-28")
	require.NoError(t, err)
	_, err = svc.AddItem("p2", 7)
	require.NoError(t, err)

	orders := svc.Orders()
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 2)
	require.Equal(t, "p1", orders[0].Items[0].ProductID)
	require.Equal(t, 2, orders[0].Items[0].Qty)
}

func TestSettlementScenario(t *testing.T) {
	svc := startedService(t, twoProducts())
	_, err := svc.AddItem("p1", 2)
	require.NoError(t, err)
	_, err = svc.AddItem("p2", 1)
	require.NoError(t, err)
	_, err = svc.Commit(context.Background(), "")
	require.NoError(t, err)

	settlement := svc.Settlement()
	require.Equal(t, 1, settlement.OrdersCount)
	require.EqualValues(t, 1300, settlement.Totals.ProviderCost)
	require.EqualValues(t, 120, settlement.Totals.FeeGaston)
	require.EqualValues(t, 60, settlement.Totals.FeeMaria)
	require.EqualValues(t, 1480, settlement.Totals.Sale)
	require.EqualValues(t, 1000, settlement.ProviderTotals["X"])
	require.EqualValues(t, 300, settlement.ProviderTotals["Y"])
}

func TestCommitEmitsEvent(t *testing.T) {
	var seen []events.Event
	bus := &events.Bus{Notifiers: []events.Notifier{notifierFunc(func(_ context.Context, ev events.Event) error {
		seen = append(seen, ev)
		return nil
	})}}
	svc := NewService(ServiceConfig{Catalog: twoProducts(), Events: bus})
	_, err := svc.Start("2026-01-01", "2026-01-31")
	require.NoError(t, err)
	_, err = svc.AddItem("p1", 1)
	require.NoError(t, err)
	committed, err := svc.Commit(context.Background(), "x")
	require.NoError(t, err)

	require.Len(t, seen, 1)
	require.Equal(t, events.TopicOrderCommitted, seen[0].Topic)
	require.Equal(t, committed.ID, seen[0].AggregateID)
}

type notifierFunc func(ctx context.Context, ev events.Event) error

func (f notifierFunc) Notify(ctx context.Context, ev events.Event) error { return f(ctx, ev) }

func TestProductDeletionPrunesBuilderAndOrders(t *testing.T) {
	cat := twoProducts()
	svc := NewService(ServiceConfig{Catalog: cat})

	// First order mixes both products; second order only has p1.
	_, err := svc.Start("2026-01-01", "2026-01-31")
	require.NoError(t, err)
	_, err = svc.AddItem("p1", 2)
	require.NoError(t, err)
	_, err = svc.AddItem("p2", 1)
	require.NoError(t, err)
	_, err = svc.Commit(context.Background(), "mixed")
	require.NoError(t, err)

	_, err = svc.Start("2026-01-01", "2026-01-31")
	require.NoError(t, err)
	_, err = svc.AddItem("p1", 3)
	require.NoError(t, err)
	_, err = svc.Commit(context.Background(), "only p1")
	require.NoError(t, err)

	_, err = svc.Start("2026-01-01", "2026-01-31")
	require.NoError(t, err)
	_, err = svc.AddItem("p1", 1)
	require.NoError(t, err)
	_, err = svc.AddItem("p2", 4)
	require.NoError(t, err)

	err = svc.Notify(context.Background(), events.Event{Topic: events.TopicProductDeleted, AggregateID: "p1"})
	require.NoError(t, err)

	orders := svc.Orders()
	require.Len(t, orders, 1)
	require.Equal(t, "mixed", orders[0].Name)
	require.Len(t, orders[0].Items, 1)
	require.Equal(t, "p2", orders[0].Items[0].ProductID)

	builder := svc.Current()
	require.Len(t, builder.Items, 1)
	require.Equal(t, "p2", builder.Items[0].ProductID)
}

func TestViewsDropDanglingItemsSilently(t *testing.T) {
	cat := twoProducts()
	svc := NewService(ServiceConfig{Catalog: cat})
	_, err := svc.Start("2026-01-01", "2026-01-31")
	require.NoError(t, err)
	_, err = svc.AddItem("p1", 1)
	require.NoError(t, err)
	_, err = svc.AddItem("p2", 1)
	require.NoError(t, err)
	_, err = svc.Commit(context.Background(), "")
	require.NoError(t, err)

	// Shrink the catalog without running the cascade; the stale line must be
	// excluded from resolution but stays on the stored order.
	cat.products = cat.products[:1]

	views := svc.Views()
	require.Len(t, views, 1)
	require.Len(t, views[0].Items, 2)
	require.Len(t, views[0].Resolved, 1)
	require.Equal(t, "p1", views[0].Resolved[0].Product.ID)
	require.EqualValues(t, 575, views[0].Totals.Sale)
}
