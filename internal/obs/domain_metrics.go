package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// ProductMutationsTotal counts catalog mutation outcomes.
	ProductMutationsTotal *prometheus.CounterVec
	// OrderItemsTotal counts builder item additions by outcome.
	OrderItemsTotal *prometheus.CounterVec
	// OrdersCommittedTotal counts committed orders.
	OrdersCommittedTotal prometheus.Counter
	// ClosuresCreatedTotal counts created period closures.
	ClosuresCreatedTotal prometheus.Counter
	// CascadePrunedItemsTotal counts line items dropped by product deletion.
	CascadePrunedItemsTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		ProductMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_mutations_total",
			Help:      "Count of catalog mutation outcomes.",
		}, []string{"action", "result"})
		OrderItemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_items_total",
			Help:      "Count of builder item additions by outcome.",
		}, []string{"result"})
		OrdersCommittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_committed_total",
			Help:      "Number of orders committed from the builder.",
		})
		ClosuresCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "closures_created_total",
			Help:      "Number of period closures created.",
		})
		CascadePrunedItemsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_pruned_items_total",
			Help:      "Line items removed by product deletion cascades.",
		})

		mustRegisterCollector(reg, ProductMutationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ProductMutationsTotal = v
			}
		})
		mustRegisterCollector(reg, OrderItemsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrderItemsTotal = v
			}
		})
		mustRegisterCollector(reg, OrdersCommittedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OrdersCommittedTotal = v
			}
		})
		mustRegisterCollector(reg, ClosuresCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				ClosuresCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, CascadePrunedItemsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CascadePrunedItemsTotal = v
			}
		})
	})
}

// IncProductMutation bumps the catalog mutation counter when metrics are enabled.
func IncProductMutation(action, result string) {
	if ProductMutationsTotal != nil {
		ProductMutationsTotal.WithLabelValues(action, result).Inc()
	}
}

// IncOrderItem bumps the builder item counter when metrics are enabled.
func IncOrderItem(result string) {
	if OrderItemsTotal != nil {
		OrderItemsTotal.WithLabelValues(result).Inc()
	}
}

// IncOrderCommitted bumps the committed-order counter when metrics are enabled.
func IncOrderCommitted() {
	if OrdersCommittedTotal != nil {
		OrdersCommittedTotal.Inc()
	}
}

// IncClosureCreated bumps the closure counter when metrics are enabled.
func IncClosureCreated() {
	if ClosuresCreatedTotal != nil {
		ClosuresCreatedTotal.Inc()
	}
}

// AddCascadePrunedItems records line items dropped by a deletion cascade.
func AddCascadePrunedItems(n int) {
	if CascadePrunedItemsTotal != nil && n > 0 {
		CascadePrunedItemsTotal.Add(float64(n))
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
