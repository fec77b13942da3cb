package money

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/noah-isme/backend-pedidos/internal/pricing"
)

// Formatter renders guarani amounts and period dates for operator-facing
// output. Guaranies have no fractional digits, so amounts format as grouped
// integers behind the currency symbol.
type Formatter struct {
	printer  *message.Printer
	collator *collate.Collator
	symbol   string
}

// NewFormatter builds a formatter for the given BCP 47 locale, e.g. "es-PY".
func NewFormatter(locale, symbol string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("money: parse locale %q: %w", locale, err)
	}
	if strings.TrimSpace(symbol) == "" {
		symbol = "Gs."
	}
	return &Formatter{
		printer:  message.NewPrinter(tag),
		collator: collate.New(tag),
		symbol:   symbol,
	}, nil
}

// Format renders an amount with locale digit grouping, e.g. "Gs. 1.480".
func (f *Formatter) Format(amount pricing.Money) string {
	return f.symbol + " " + f.printer.Sprintf("%d", amount)
}

// FormatDate renders an ISO date as the operator-facing day/month/year form.
func (f *Formatter) FormatDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("02/01/2006")
}

// SortProviders orders provider names with locale-aware collation, so names
// with accents sort the way an operator expects.
func (f *Formatter) SortProviders(providers []string) {
	f.collator.SortStrings(providers)
}

// SettlementLines renders the settlement summary as display lines: the order
// total first, then one line per provider in collation order, then the two
// beneficiary totals.
func (f *Formatter) SettlementLines(totals pricing.Totals, byProvider map[string]pricing.Money) []string {
	providers := make([]string, 0, len(byProvider))
	for provider := range byProvider {
		providers = append(providers, provider)
	}
	f.SortProviders(providers)

	lines := make([]string, 0, len(providers)+3)
	lines = append(lines, "TOTAL PEDIDO: "+f.Format(totals.Sale))
	for _, provider := range providers {
		lines = append(lines, "TOTAL "+strings.ToUpper(provider)+": "+f.Format(byProvider[provider]))
	}
	lines = append(lines, "TOTAL GASTON: "+f.Format(totals.FeeGaston))
	lines = append(lines, "TOTAL MARIA: "+f.Format(totals.FeeMaria))
	return lines
}

// TotalLine renders the settlement summary as the single pipe-separated line
// shown under each order.
func (f *Formatter) TotalLine(totals pricing.Totals, byProvider map[string]pricing.Money) string {
	return strings.Join(f.SettlementLines(totals, byProvider), " | ")
}

// SortedProviderTotals returns provider/amount pairs in collation order, for
// clients that need a stable display order out of the unordered map.
func (f *Formatter) SortedProviderTotals(byProvider map[string]pricing.Money) []ProviderTotal {
	out := make([]ProviderTotal, 0, len(byProvider))
	for provider, amount := range byProvider {
		out = append(out, ProviderTotal{Provider: provider, Total: amount})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return f.collator.CompareString(out[i].Provider, out[j].Provider) < 0
	})
	return out
}

// ProviderTotal is a provider name with its summed provider cost.
type ProviderTotal struct {
	Provider string        `json:"provider"`
	Total    pricing.Money `json:"total"`
}
