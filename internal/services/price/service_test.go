package price

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/foliotrack/foliotrack/internal/common"
	"github.com/foliotrack/foliotrack/internal/interfaces"
	"github.com/foliotrack/foliotrack/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakePriceStore struct {
	mu     sync.Mutex
	series map[string]*models.PriceSeries
	saves  int
}

func newFakePriceStore() *fakePriceStore {
	return &fakePriceStore{series: make(map[string]*models.PriceSeries)}
}

func (f *fakePriceStore) GetSeries(ctx context.Context, ticker string) (*models.PriceSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.series[ticker]
	if !ok {
		return nil, fmt.Errorf("price series for %s not found", ticker)
	}
	return s, nil
}

func (f *fakePriceStore) GetSeriesBatch(ctx context.Context, tickers []string) ([]*models.PriceSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PriceSeries
	for _, t := range tickers {
		if s, ok := f.series[t]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakePriceStore) SaveSeries(ctx context.Context, series *models.PriceSeries) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.series[series.Ticker] = series
	f.saves++
	return nil
}

type fakeStorage struct {
	prices *fakePriceStore
}

func (f *fakeStorage) LedgerStore() interfaces.LedgerStore { return nil }
func (f *fakeStorage) PriceStore() interfaces.PriceStore   { return f.prices }
func (f *fakeStorage) UserStore() interfaces.UserStore     { return nil }
func (f *fakeStorage) Close() error                        { return nil }

type fakeMarketData struct {
	mu       sync.Mutex
	points   map[string][]models.PricePoint
	quotes   map[string]float64
	eodCalls int
	fail     bool
}

func (f *fakeMarketData) GetEODSeries(ctx context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eodCalls++
	if f.fail {
		return nil, fmt.Errorf("provider unavailable")
	}
	return f.points[ticker], nil
}

func (f *fakeMarketData) GetLiveQuote(ctx context.Context, ticker string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, fmt.Errorf("provider unavailable")
	}
	q, ok := f.quotes[ticker]
	if !ok {
		return 0, fmt.Errorf("no quote")
	}
	return q, nil
}

func newTestService(store *fakePriceStore, client *fakeMarketData) *Service {
	return NewService(&fakeStorage{prices: store}, client, common.NewSilentLogger())
}

func TestGetSeries_FreshCacheSkipsProvider(t *testing.T) {
	store := newFakePriceStore()
	store.series["vti"] = &models.PriceSeries{
		Ticker:      "vti",
		Points:      []models.PricePoint{{Date: day(2024, 1, 1), Close: 100}},
		LastUpdated: time.Now(),
	}
	client := &fakeMarketData{}
	svc := newTestService(store, client)

	series, err := svc.GetSeries(context.Background(), "vti")
	if err != nil {
		t.Fatal(err)
	}
	if len(series.Points) != 1 {
		t.Errorf("got %d points, want 1", len(series.Points))
	}
	if client.eodCalls != 0 {
		t.Errorf("provider called %d times for fresh cache, want 0", client.eodCalls)
	}
}

func TestGetSeries_MissingTriggersBackfill(t *testing.T) {
	store := newFakePriceStore()
	client := &fakeMarketData{points: map[string][]models.PricePoint{
		"vti": {
			{Date: day(2024, 1, 1), Close: 100},
			{Date: day(2024, 1, 2), Close: 101},
		},
	}}
	svc := newTestService(store, client)

	series, err := svc.GetSeries(context.Background(), "vti")
	if err != nil {
		t.Fatal(err)
	}
	if len(series.Points) != 2 {
		t.Errorf("got %d points, want 2", len(series.Points))
	}
	if client.eodCalls != 1 {
		t.Errorf("provider called %d times, want 1", client.eodCalls)
	}
	if store.saves != 1 {
		t.Errorf("store saved %d times, want 1", store.saves)
	}
}

func TestGetSeries_StaleMergesIncrementalFetch(t *testing.T) {
	store := newFakePriceStore()
	store.series["vti"] = &models.PriceSeries{
		Ticker: "vti",
		Points: []models.PricePoint{
			{Date: day(2024, 1, 1), Close: 100},
			{Date: day(2024, 1, 2), Close: 101},
		},
		LastUpdated: time.Now().Add(-48 * time.Hour),
	}
	client := &fakeMarketData{points: map[string][]models.PricePoint{
		"vti": {
			{Date: day(2024, 1, 2), Close: 101.5}, // refreshed value wins
			{Date: day(2024, 1, 3), Close: 102},
		},
	}}
	svc := newTestService(store, client)

	series, err := svc.GetSeries(context.Background(), "vti")
	if err != nil {
		t.Fatal(err)
	}
	if len(series.Points) != 3 {
		t.Fatalf("got %d points, want 3 merged", len(series.Points))
	}
	if series.Points[1].Close != 101.5 {
		t.Errorf("overlapping date close = %.2f, want refreshed 101.5", series.Points[1].Close)
	}
}

func TestGetSeries_ProviderFailureServesStale(t *testing.T) {
	store := newFakePriceStore()
	store.series["vti"] = &models.PriceSeries{
		Ticker:      "vti",
		Points:      []models.PricePoint{{Date: day(2024, 1, 1), Close: 100}},
		LastUpdated: time.Now().Add(-72 * time.Hour),
	}
	client := &fakeMarketData{fail: true}
	svc := newTestService(store, client)

	series, err := svc.GetSeries(context.Background(), "vti")
	if err != nil {
		t.Fatalf("expected stale series, got error: %v", err)
	}
	if len(series.Points) != 1 || series.Points[0].Close != 100 {
		t.Errorf("stale series = %+v, want the stored points", series.Points)
	}
}

func TestGetSeries_ProviderFailureNoStoredData(t *testing.T) {
	svc := newTestService(newFakePriceStore(), &fakeMarketData{fail: true})
	if _, err := svc.GetSeries(context.Background(), "vti"); err == nil {
		t.Error("expected error when provider fails and nothing is stored")
	}
}

func TestGetSeriesBatch_DeduplicatesAndSkipsFailures(t *testing.T) {
	store := newFakePriceStore()
	client := &fakeMarketData{points: map[string][]models.PricePoint{
		"vti": {{Date: day(2024, 1, 1), Close: 100}},
	}}
	svc := newTestService(store, client)

	out, err := svc.GetSeriesBatch(context.Background(), []string{"vti", "vti", "", "ghost"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d series, want 1 (ghost has no data, vti deduplicated)", len(out))
	}
	if _, ok := out["vti"]; !ok {
		t.Error("vti missing from batch result")
	}
	// vti once, ghost once.
	if client.eodCalls != 2 {
		t.Errorf("provider called %d times, want 2", client.eodCalls)
	}
}

func TestCurrentPrice_PrefersLiveQuote(t *testing.T) {
	store := newFakePriceStore()
	store.series["vti"] = &models.PriceSeries{
		Ticker:      "vti",
		Points:      []models.PricePoint{{Date: day(2024, 1, 1), Close: 100}},
		LastUpdated: time.Now(),
	}
	client := &fakeMarketData{quotes: map[string]float64{"vti": 103.25}}
	svc := newTestService(store, client)

	got, err := svc.CurrentPrice(context.Background(), "vti")
	if err != nil {
		t.Fatal(err)
	}
	if got != 103.25 {
		t.Errorf("current price = %.2f, want live 103.25", got)
	}
}

func TestCurrentPrice_FallsBackToLastClose(t *testing.T) {
	store := newFakePriceStore()
	store.series["vti"] = &models.PriceSeries{
		Ticker: "vti",
		Points: []models.PricePoint{
			{Date: day(2024, 1, 1), Close: 100},
			{Date: day(2024, 1, 2), Close: 101},
		},
		LastUpdated: time.Now(),
	}
	client := &fakeMarketData{fail: true}
	svc := newTestService(store, client)

	got, err := svc.CurrentPrice(context.Background(), "vti")
	if err != nil {
		t.Fatal(err)
	}
	if got != 101 {
		t.Errorf("current price = %.2f, want last close 101", got)
	}
}
