// Package price provides cache-first access to EOD price series: stored
// series are served from the price store and refreshed from the market data
// provider when stale or absent.
package price

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/foliotrack/foliotrack/internal/common"
	"github.com/foliotrack/foliotrack/internal/interfaces"
	"github.com/foliotrack/foliotrack/internal/models"
)

// historyYears bounds the initial backfill window for a ticker with no
// stored data.
const historyYears = 10

// Service implements interfaces.PriceService over a price store and a
// market data client.
type Service struct {
	storage interfaces.StorageManager
	client  interfaces.MarketDataClient
	logger  *common.Logger
}

var _ interfaces.PriceService = (*Service)(nil)

// NewService creates a price service.
func NewService(storage interfaces.StorageManager, client interfaces.MarketDataClient, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		client:  client,
		logger:  logger,
	}
}

// fresh reports whether a stored series is current enough to serve without
// refetching: updated within the last day.
func fresh(series *models.PriceSeries) bool {
	if series == nil || series.Empty() {
		return false
	}
	return time.Since(series.LastUpdated) < 24*time.Hour
}

// GetSeries returns the EOD close series for a ticker, cache-first. A
// missing series triggers a full backfill; a stale one an incremental fetch
// from its last stored close. When the provider is unreachable the stored
// series is served as-is; stale data beats no data.
func (s *Service) GetSeries(ctx context.Context, ticker string) (*models.PriceSeries, error) {
	store := s.storage.PriceStore()

	stored, err := store.GetSeries(ctx, ticker)
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Price store read failed")
	}
	if fresh(stored) {
		return stored, nil
	}

	now := time.Now().UTC()
	from := now.AddDate(-historyYears, 0, 0)
	if stored != nil && !stored.Empty() {
		from = stored.Points[len(stored.Points)-1].Date
	}

	points, err := s.client.GetEODSeries(ctx, ticker, from, now)
	if err != nil {
		if stored != nil && !stored.Empty() {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Price refresh failed, serving stored series")
			return stored, nil
		}
		return nil, fmt.Errorf("failed to fetch prices for %s: %w", ticker, err)
	}
	if len(points) == 0 && (stored == nil || stored.Empty()) {
		return nil, fmt.Errorf("no price data for %s", ticker)
	}

	merged := mergeSeries(stored, ticker, points, now)
	if err := store.SaveSeries(ctx, merged); err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Price series save failed")
	}

	s.logger.Debug().
		Str("ticker", ticker).
		Int("fetched", len(points)).
		Int("total", len(merged.Points)).
		Msg("Price series refreshed")
	return merged, nil
}

// mergeSeries folds freshly fetched points into a stored series, replacing
// overlapping dates, and returns the result date-sorted.
func mergeSeries(stored *models.PriceSeries, ticker string, points []models.PricePoint, now time.Time) *models.PriceSeries {
	byDate := make(map[time.Time]float64)
	if stored != nil {
		for _, p := range stored.Points {
			byDate[p.Date] = p.Close
		}
	}
	for _, p := range points {
		byDate[p.Date] = p.Close
	}

	merged := make([]models.PricePoint, 0, len(byDate))
	for date, close := range byDate {
		merged = append(merged, models.PricePoint{Date: date, Close: close})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})

	return &models.PriceSeries{
		Ticker:      ticker,
		Points:      merged,
		LastUpdated: now,
	}
}

// GetSeriesBatch loads series for distinct tickers in parallel. Individual
// failures are logged and omitted from the result rather than failing the
// batch; callers treat absent tickers as missing price data.
func (s *Service) GetSeriesBatch(ctx context.Context, tickers []string) (map[string]*models.PriceSeries, error) {
	out := make(map[string]*models.PriceSeries, len(tickers))
	if len(tickers) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	seen := make(map[string]bool, len(tickers))

	for _, ticker := range tickers {
		if ticker == "" || seen[ticker] {
			continue
		}
		seen[ticker] = true

		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()
			series, err := s.GetSeries(ctx, ticker)
			if err != nil {
				s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Price series unavailable")
				return
			}
			mu.Lock()
			out[ticker] = series
			mu.Unlock()
		}(ticker)
	}
	wg.Wait()

	return out, nil
}

// CurrentPrice returns the freshest price for a ticker: the provider's live
// quote when available, otherwise the last stored close.
func (s *Service) CurrentPrice(ctx context.Context, ticker string) (float64, error) {
	quote, err := s.client.GetLiveQuote(ctx, ticker)
	if err == nil && quote > 0 {
		return quote, nil
	}
	if err != nil {
		s.logger.Debug().Err(err).Str("ticker", ticker).Msg("Live quote unavailable, falling back to last close")
	}

	stored, storeErr := s.storage.PriceStore().GetSeries(ctx, ticker)
	if storeErr == nil && stored != nil && !stored.Empty() {
		return stored.Points[len(stored.Points)-1].Close, nil
	}
	if err == nil {
		err = fmt.Errorf("no price data for %s", ticker)
	}
	return 0, fmt.Errorf("failed to resolve current price for %s: %w", ticker, err)
}
