package pricing

import (
	"github.com/noah-isme/backend-pedidos/internal/catalog"
)

// Money represents a monetary value in guaranies (no fractional digits).
type Money = int64

// Line references a catalog product with a quantity. Lines live inside the
// order builder and committed orders; they carry no money amounts themselves.
type Line struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// ResolvedItem is a line joined with its current product definition and the
// quantity-scaled money amounts derived from it. Never persisted.
type ResolvedItem struct {
	Product      catalog.Product `json:"product"`
	Qty          int             `json:"qty"`
	ProviderCost Money           `json:"provider"`
	FeeGaston    Money           `json:"gaston"`
	FeeMaria     Money           `json:"maria"`
	Sale         Money           `json:"sale"`
}

// Totals aggregates the four money components over a set of resolved items.
type Totals struct {
	ProviderCost Money `json:"provider"`
	FeeGaston    Money `json:"gaston"`
	FeeMaria     Money `json:"maria"`
	Sale         Money `json:"sale"`
}

// Lookup resolves a product id against the current catalog.
type Lookup func(id string) (catalog.Product, bool)

// Resolve joins lines with their products. Lines whose product id no longer
// resolves are dropped from the output; this is the documented policy for
// dangling references, not an error. Output order matches input order of the
// lines that resolved.
func Resolve(lines []Line, find Lookup) []ResolvedItem {
	resolved := make([]ResolvedItem, 0, len(lines))
	for _, line := range lines {
		product, ok := find(line.ProductID)
		if !ok {
			continue
		}
		qty := Money(line.Qty)
		resolved = append(resolved, ResolvedItem{
			Product:      product,
			Qty:          line.Qty,
			ProviderCost: product.Cost * qty,
			FeeGaston:    product.FeeGaston * qty,
			FeeMaria:     product.FeeMaria * qty,
			Sale:         product.SalePrice() * qty,
		})
	}
	return resolved
}

// Sum reduces resolved items into totals. Empty input yields zero totals; the
// result does not depend on item order.
func Sum(items []ResolvedItem) Totals {
	var t Totals
	for _, it := range items {
		t.ProviderCost += it.ProviderCost
		t.FeeGaston += it.FeeGaston
		t.FeeMaria += it.FeeMaria
		t.Sale += it.Sale
	}
	return t
}

// Add combines two totals component-wise.
func Add(a, b Totals) Totals {
	return Totals{
		ProviderCost: a.ProviderCost + b.ProviderCost,
		FeeGaston:    a.FeeGaston + b.FeeGaston,
		FeeMaria:     a.FeeMaria + b.FeeMaria,
		Sale:         a.Sale + b.Sale,
	}
}

// SumByProvider groups resolved items by their product's provider name and
// sums the provider cost per group. Keys are the exact provider strings as
// stored in the catalog.
func SumByProvider(items []ResolvedItem) map[string]Money {
	byProvider := make(map[string]Money)
	for _, it := range items {
		byProvider[it.Product.Provider] += it.ProviderCost
	}
	return byProvider
}

// MergeProviderTotals accumulates src into dst and returns dst.
func MergeProviderTotals(dst, src map[string]Money) map[string]Money {
	if dst == nil {
		dst = make(map[string]Money, len(src))
	}
	for provider, total := range src {
		dst[provider] += total
	}
	return dst
}
