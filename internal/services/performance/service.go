package performance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/foliotrack/foliotrack/internal/common"
	"github.com/foliotrack/foliotrack/internal/interfaces"
	"github.com/foliotrack/foliotrack/internal/models"
)

// Service computes portfolio return analytics from the transaction ledger.
// It is stateless between requests; every report is derived fresh from the
// stored transactions and price series.
type Service struct {
	storage interfaces.StorageManager
	prices  interfaces.PriceService
	logger  *common.Logger
}

var _ interfaces.PerformanceService = (*Service)(nil)

// NewService creates a performance service.
func NewService(storage interfaces.StorageManager, prices interfaces.PriceService, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		prices:  prices,
		logger:  logger,
	}
}

// periodStarts maps recognized period codes to offsets from the window end.
var periodStarts = map[string]func(time.Time) time.Time{
	"1M": func(t time.Time) time.Time { return t.AddDate(0, -1, 0) },
	"3M": func(t time.Time) time.Time { return t.AddDate(0, -3, 0) },
	"6M": func(t time.Time) time.Time { return t.AddDate(0, -6, 0) },
	"1Y": func(t time.Time) time.Time { return t.AddDate(-1, 0, 0) },
	"3Y": func(t time.Time) time.Time { return t.AddDate(-3, 0, 0) },
	"5Y": func(t time.Time) time.Time { return t.AddDate(-5, 0, 0) },
}

// resolveRange turns request options into a concrete [start, end] window.
// Explicit dates win over a period code; an empty or "inception" period
// starts at the earliest transaction. Transactions arrive date-ordered from
// the store.
func resolveRange(opts models.SeriesOptions, txs []*models.Transaction) (time.Time, time.Time, error) {
	end := dayOf(time.Now().UTC())
	if !opts.EndDate.IsZero() {
		end = dayOf(opts.EndDate)
	}

	if !opts.StartDate.IsZero() {
		start := dayOf(opts.StartDate)
		if start.After(end) {
			return time.Time{}, time.Time{}, fmt.Errorf("start date %s is after end date %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
		}
		return start, end, nil
	}

	period := strings.ToUpper(opts.Period)
	if period == "" || period == "INCEPTION" {
		start := end
		if len(txs) > 0 {
			start = dayOf(txs[0].Date)
		}
		if start.After(end) {
			start = end
		}
		return start, end, nil
	}

	offset, ok := periodStarts[period]
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("unrecognized period %q", opts.Period)
	}
	return dayOf(offset(end)), end, nil
}

// normalizeOptions applies defaults and validates enumerated options.
func normalizeOptions(opts models.SeriesOptions) (models.SeriesOptions, error) {
	if opts.Lens == "" {
		opts.Lens = models.LensTotal
	}
	if !models.ValidLens(opts.Lens) {
		return opts, fmt.Errorf("invalid lens %q", opts.Lens)
	}
	if opts.Granularity == "" {
		opts.Granularity = models.GranularityDaily
	}
	if opts.Granularity != models.GranularityDaily && opts.Granularity != models.GranularityMonthly {
		return opts, fmt.Errorf("invalid granularity %q", opts.Granularity)
	}
	return opts, nil
}

func emptyReport() *models.PerformanceReport {
	return &models.PerformanceReport{
		Series: make(map[string][]models.ReturnRecord),
		Totals: make(map[string]models.ReturnRecord),
	}
}

// Series builds the full performance report for one request: partition the
// ledger by lens, value every group across the date grid, rebase returns to
// the window, and attach benchmarks and per-asset breakdowns.
func (s *Service) Series(ctx context.Context, userID string, opts models.SeriesOptions) (*models.PerformanceReport, error) {
	opts, err := normalizeOptions(opts)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	ledger := s.storage.LedgerStore()

	txs, err := ledger.ListTransactions(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	if len(txs) == 0 {
		return emptyReport(), nil
	}

	cat, err := s.loadCatalog(ctx, userID)
	if err != nil {
		return nil, err
	}

	start, end, err := resolveRange(opts, txs)
	if err != nil {
		return nil, err
	}

	groups, err := Partition(txs, cat, opts.Lens, opts.SelectedValues)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return emptyReport(), nil
	}

	prices := s.loadPrices(ctx, groups, cat, opts.Benchmarks, end)
	grid := dateGrid(start, end, opts.Granularity)

	report := emptyReport()
	if opts.Aggregate {
		// Each selected group stays an independent series; the aggregate is
		// added alongside by re-valuing the union, never by averaging rates.
		for _, g := range groups {
			records := buildGroupSeries(g, grid, cat, prices, opts.IncludeExternalFunding)
			report.Series[g.Key] = records
			report.Totals[g.Key] = records[len(records)-1]
		}
		merged := mergeGroups(groups, models.AggregateKey)
		records := buildGroupSeries(merged, grid, cat, prices, opts.IncludeExternalFunding)
		report.Series[merged.Key] = records
		report.Totals[merged.Key] = records[len(records)-1]
	} else {
		report.Assets = make(map[string]map[string][]models.ReturnRecord)
		for _, g := range groups {
			records := buildGroupSeries(g, grid, cat, prices, opts.IncludeExternalFunding)
			report.Series[g.Key] = records
			report.Totals[g.Key] = records[len(records)-1]

			breakdown := make(map[string][]models.ReturnRecord)
			for _, sub := range partitionByTicker(g, cat) {
				breakdown[sub.Key] = buildGroupSeries(sub, grid, cat, prices, opts.IncludeExternalFunding)
			}
			if len(breakdown) > 0 {
				report.Assets[g.Key] = breakdown
			}
		}
	}

	report.Benchmarks = buildBenchmarks(opts.Benchmarks, grid, prices)
	report.MissingPrices = prices.missingTickers()

	s.logger.Debug().
		Str("user_id", userID).
		Str("lens", string(opts.Lens)).
		Int("groups", len(groups)).
		Int("grid_points", len(grid)).
		Int("missing_prices", len(report.MissingPrices)).
		Dur("elapsed", time.Since(started)).
		Msg("Performance series built")

	return report, nil
}

// Snapshot reconstructs the whole-portfolio valuation at one date.
func (s *Service) Snapshot(ctx context.Context, userID string, asOf time.Time) (*models.PortfolioState, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	asOf = dayOf(asOf)

	ledger := s.storage.LedgerStore()
	txs, err := ledger.ListTransactions(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	cat, err := s.loadCatalog(ctx, userID)
	if err != nil {
		return nil, err
	}

	group := &Group{Key: totalKey, Transactions: txs, IncludesCash: true}
	prices := s.loadPrices(ctx, []*Group{group}, cat, nil, asOf)

	v := valueGroup(group, asOf, cat, prices)
	return &v.state, nil
}

// loadCatalog fetches the grouping metadata for a user.
func (s *Service) loadCatalog(ctx context.Context, userID string) (*catalog, error) {
	ledger := s.storage.LedgerStore()

	assets, err := ledger.ListAssets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assets: %w", err)
	}
	accounts, err := ledger.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	subs, err := ledger.ListSubPortfolios(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sub-portfolios: %w", err)
	}
	return newCatalog(assets, accounts, subs), nil
}

// loadPrices fetches stored series for every ticker the groups reference
// plus any benchmarks, then layers live quotes on top when the window ends
// today. Price failures degrade to missing data rather than failing the
// request.
func (s *Service) loadPrices(ctx context.Context, groups []*Group, cat *catalog, benchmarks []string, end time.Time) *priceIndex {
	seen := make(map[string]bool)
	var tickers []string
	for _, g := range groups {
		for _, tx := range g.Transactions {
			if tx.AssetID == "" {
				continue
			}
			ticker := cat.tickerOf(tx.AssetID)
			if !seen[ticker] {
				seen[ticker] = true
				tickers = append(tickers, ticker)
			}
		}
	}
	holdings := len(tickers)
	for _, b := range benchmarks {
		if !seen[b] {
			seen[b] = true
			tickers = append(tickers, b)
		}
	}

	series, err := s.prices.GetSeriesBatch(ctx, tickers)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Price series batch load failed, valuing affected positions at zero")
		series = make(map[string]*models.PriceSeries)
	}

	var live map[string]float64
	var liveAt time.Time
	today := dayOf(time.Now().UTC())
	if !end.Before(today) {
		live = make(map[string]float64, holdings)
		for _, ticker := range tickers[:holdings] {
			quote, err := s.prices.CurrentPrice(ctx, ticker)
			if err != nil {
				s.logger.Debug().Err(err).Str("ticker", ticker).Msg("No live quote, using last stored close")
				continue
			}
			live[ticker] = quote
		}
		liveAt = today
	}

	return newPriceIndex(series, live, liveAt)
}
