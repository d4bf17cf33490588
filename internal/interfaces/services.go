package interfaces

import (
	"context"
	"time"

	"github.com/foliotrack/foliotrack/internal/models"
)

// PerformanceService computes return analytics over the transaction ledger.
// It is stateless and deterministic with respect to its inputs: the same
// transaction/lot/price snapshot always yields the same report.
type PerformanceService interface {
	// Series builds one valuation + return record per date per group across
	// the requested date grid, plus totals, optional benchmark overlays, and
	// per-asset breakdowns in non-aggregate mode.
	Series(ctx context.Context, userID string, opts models.SeriesOptions) (*models.PerformanceReport, error)

	// Snapshot reconstructs the whole-portfolio valuation as of a single
	// historical date.
	Snapshot(ctx context.Context, userID string, asOf time.Time) (*models.PortfolioState, error)

	// Chart renders the series for a request as a PNG line chart.
	Chart(ctx context.Context, userID string, opts models.SeriesOptions) ([]byte, error)
}

// PriceService is the keyed price lookup the engine depends on: cache-first
// reads from the price store with a live-fetch fallback to the market data
// provider. The engine tolerates missing prices; retry/backoff belongs here,
// not in the engine.
type PriceService interface {
	GetSeries(ctx context.Context, ticker string) (*models.PriceSeries, error)

	// GetSeriesBatch loads series for distinct tickers, fetching misses in
	// parallel. Lookups are read-only and independent; cross-ticker ordering
	// has no correctness impact.
	GetSeriesBatch(ctx context.Context, tickers []string) (map[string]*models.PriceSeries, error)

	// CurrentPrice returns the freshest available price for a ticker,
	// preferring a live quote over the last stored close.
	CurrentPrice(ctx context.Context, ticker string) (float64, error)
}
