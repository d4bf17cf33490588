package interfaces

import (
	"context"
	"time"

	"github.com/foliotrack/foliotrack/internal/models"
)

// MarketDataClient fetches prices from a third-party EOD data provider.
type MarketDataClient interface {
	// GetEODSeries fetches end-of-day closes for a ticker within a range.
	GetEODSeries(ctx context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error)

	// GetLiveQuote fetches the latest intraday/delayed price for a ticker.
	GetLiveQuote(ctx context.Context, ticker string) (float64, error)
}
