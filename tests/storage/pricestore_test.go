package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotrack/foliotrack/internal/models"
)

func TestPriceSeriesRoundTrip(t *testing.T) {
	mgr := testManager(t)
	store := mgr.PriceStore()
	ctx := testContext()

	series := &models.PriceSeries{
		Ticker: "VTI",
		Points: []models.PricePoint{
			{Date: day(2024, 1, 1), Close: 100},
			{Date: day(2024, 1, 2), Close: 101.25},
		},
		LastUpdated: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.SaveSeries(ctx, series))

	got, err := store.GetSeries(ctx, "VTI")
	require.NoError(t, err)
	require.Len(t, got.Points, 2)
	assert.Equal(t, 101.25, got.Points[1].Close)

	// Re-save replaces the series rather than appending.
	series.Points = append(series.Points, models.PricePoint{Date: day(2024, 1, 3), Close: 102})
	require.NoError(t, store.SaveSeries(ctx, series))
	got, err = store.GetSeries(ctx, "VTI")
	require.NoError(t, err)
	assert.Len(t, got.Points, 3)
}

func TestPriceSeriesBatch(t *testing.T) {
	mgr := testManager(t)
	store := mgr.PriceStore()
	ctx := testContext()

	for _, ticker := range []string{"VTI", "BND"} {
		require.NoError(t, store.SaveSeries(ctx, &models.PriceSeries{
			Ticker:      ticker,
			Points:      []models.PricePoint{{Date: day(2024, 1, 1), Close: 100}},
			LastUpdated: time.Now().UTC(),
		}))
	}

	// Unknown tickers are simply absent from the batch result.
	out, err := store.GetSeriesBatch(ctx, []string{"VTI", "BND", "GHOST"})
	require.NoError(t, err)
	require.Len(t, out, 2)

	tickers := map[string]bool{}
	for _, s := range out {
		tickers[s.Ticker] = true
	}
	assert.True(t, tickers["VTI"] && tickers["BND"])
}

func TestPriceSeriesMissing(t *testing.T) {
	mgr := testManager(t)
	store := mgr.PriceStore()
	ctx := testContext()

	_, err := store.GetSeries(ctx, "NOPE")
	assert.Error(t, err)
}
