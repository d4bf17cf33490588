package models

import "time"

// Lens is the grouping dimension a performance request partitions the
// portfolio by. A fixed set of typed variants replaces dynamic field-path
// lookups; each lens carries its own extraction logic in the engine.
type Lens string

const (
	LensTotal        Lens = "total"
	LensAccount      Lens = "account"
	LensSubPortfolio Lens = "sub_portfolio"
	LensAssetType    Lens = "asset_type"
	LensAssetSubtype Lens = "asset_subtype"
	LensGeography    Lens = "geography"
	LensSizeTag      Lens = "size_tag"
	LensFactorTag    Lens = "factor_tag"
)

var validLenses = map[Lens]bool{
	LensTotal:        true,
	LensAccount:      true,
	LensSubPortfolio: true,
	LensAssetType:    true,
	LensAssetSubtype: true,
	LensGeography:    true,
	LensSizeTag:      true,
	LensFactorTag:    true,
}

// ValidLens returns true if l is a recognized grouping lens.
func ValidLens(l Lens) bool {
	return validLenses[l]
}

// Granularity of the output date grid.
const (
	GranularityDaily   = "daily"
	GranularityMonthly = "monthly"
)

// AggregateKey labels the synthetic cross-group series built by re-valuing
// the union of all selected groups.
const AggregateKey = "Portfolio"

// PortfolioState is the instantaneous valuation snapshot for one group at
// one date. Derived per request, never persisted.
type PortfolioState struct {
	Date           time.Time `json:"date"`
	MarketValue    float64   `json:"market_value"`
	TotalBasis     float64   `json:"total_basis"`
	Unrealized     float64   `json:"unrealized"`
	Cash           float64   `json:"cash"`
	PortfolioValue float64   `json:"portfolio_value"`
}

// ReturnRecord is one PortfolioState plus return metrics for a (group, date)
// pair. Flow components are rebased to the first in-range point so that
// NetGain == Unrealized + Realized + Income holds at every point.
type ReturnRecord struct {
	PortfolioState

	NetGain          float64 `json:"net_gain"`
	NetContributions float64 `json:"net_contributions"`
	Realized         float64 `json:"realized"`
	Income           float64 `json:"income"`
	TotalReturnPct   float64 `json:"total_return_pct"`
	IRR              float64 `json:"irr"`
	TWR              float64 `json:"twr"`

	// IRRFallback is set when the solver did not converge and IRR holds an
	// annualized total-return approximation instead of a true money-weighted
	// rate.
	IRRFallback bool `json:"irr_fallback,omitempty"`
}

// BenchmarkPoint is one normalized percentage-return observation for a
// benchmark ticker, aligned to the request date grid.
type BenchmarkPoint struct {
	Date      time.Time `json:"date"`
	ReturnPct float64   `json:"return_pct"`
}

// SeriesOptions are the recognized options of a performance request.
type SeriesOptions struct {
	Lens           Lens      `json:"lens"`
	SelectedValues []string  `json:"selected_values,omitempty"`
	Aggregate      bool      `json:"aggregate"`
	Period         string    `json:"period,omitempty"` // 1M, 3M, 6M, 1Y, 3Y, 5Y, inception
	StartDate      time.Time `json:"start_date,omitempty"`
	EndDate        time.Time `json:"end_date,omitempty"`
	Granularity    string    `json:"granularity,omitempty"` // daily (default) or monthly
	Benchmarks     []string  `json:"benchmarks,omitempty"`

	// IncludeExternalFunding controls whether externally-funded buys enter
	// the IRR cash-flow series (at zero) or are excluded entirely.
	IncludeExternalFunding bool `json:"include_external_funding,omitempty"`
}

// PerformanceReport is the response payload of a series request.
type PerformanceReport struct {
	Series     map[string][]ReturnRecord            `json:"series"`
	Totals     map[string]ReturnRecord              `json:"totals"`
	Benchmarks map[string][]BenchmarkPoint          `json:"benchmarks,omitempty"`
	Assets     map[string]map[string][]ReturnRecord `json:"assets,omitempty"`

	// MissingPrices lists tickers that had no usable price data in range;
	// their positions were valued at zero rather than failing the request.
	MissingPrices []string `json:"missing_prices,omitempty"`
}
