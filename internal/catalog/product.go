package catalog

// Product is a catalog entry with its cost/fee breakdown. The two fees are
// the per-unit payouts owed to the two fixed beneficiaries ("gaston" and
// "maria" on the persisted payload).
type Product struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	Cost      int64  `json:"cost"`
	FeeGaston int64  `json:"gaston"`
	FeeMaria  int64  `json:"maria"`
}

// SalePrice derives the unit sale price. It is never stored.
func (p Product) SalePrice() int64 {
	return p.Cost + p.FeeGaston + p.FeeMaria
}
