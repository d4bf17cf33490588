package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/foliotrack/foliotrack/internal/common"
	"github.com/foliotrack/foliotrack/internal/interfaces"
	"github.com/foliotrack/foliotrack/internal/models"
)

// PriceStore persists per-ticker EOD price series, one record per ticker.
type PriceStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewPriceStore(db *surrealdb.DB, logger *common.Logger) *PriceStore {
	return &PriceStore{db: db, logger: logger}
}

var _ interfaces.PriceStore = (*PriceStore)(nil)

func (s *PriceStore) GetSeries(ctx context.Context, ticker string) (*models.PriceSeries, error) {
	series, err := surrealdb.Select[models.PriceSeries](ctx, s.db, surrealmodels.NewRecordID("price_series", ticker))
	if err != nil {
		return nil, fmt.Errorf("failed to select price series: %w", err)
	}
	if series == nil {
		return nil, fmt.Errorf("price series for %s not found", ticker)
	}
	return series, nil
}

func (s *PriceStore) GetSeriesBatch(ctx context.Context, tickers []string) ([]*models.PriceSeries, error) {
	if len(tickers) == 0 {
		return nil, nil
	}

	sql := "SELECT * FROM price_series WHERE ticker IN $tickers"
	vars := map[string]any{"tickers": tickers}

	results, err := surrealdb.Query[[]models.PriceSeries](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to get price series batch: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.PriceSeries
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

func (s *PriceStore) SaveSeries(ctx context.Context, series *models.PriceSeries) error {
	return upsert(ctx, s.db, "price_series", series.Ticker, series)
}
