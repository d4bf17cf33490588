// Package interfaces defines service contracts for Foliotrack
package interfaces

import (
	"context"
	"time"

	"github.com/foliotrack/foliotrack/internal/models"
)

// StorageManager coordinates all storage backends.
type StorageManager interface {
	LedgerStore() LedgerStore
	PriceStore() PriceStore
	UserStore() UserStore

	// Lifecycle
	Close() error
}

// LedgerStore provides read/write access to transactions, tax lots, and the
// descriptive records (assets, accounts, sub-portfolios) used as grouping
// keys. All queries are user-scoped. Results are normalized into the concrete
// model shapes before the engine sees them; the engine never branches on
// data-layer join shapes.
type LedgerStore interface {
	// Transactions, ordered by date ascending with ties in insertion order.
	ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]*models.Transaction, error)
	GetTransaction(ctx context.Context, userID, id string) (*models.Transaction, error)
	SaveTransaction(ctx context.Context, tx *models.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error

	// Tax lots (current snapshot; historical state is derived by FIFO replay).
	ListLots(ctx context.Context, userID string) ([]*models.TaxLot, error)
	SaveLot(ctx context.Context, lot *models.TaxLot) error
	DeleteLot(ctx context.Context, userID, id string) error

	// Grouping metadata.
	ListAssets(ctx context.Context, userID string) ([]*models.Asset, error)
	SaveAsset(ctx context.Context, asset *models.Asset) error
	ListAccounts(ctx context.Context, userID string) ([]*models.Account, error)
	SaveAccount(ctx context.Context, account *models.Account) error
	ListSubPortfolios(ctx context.Context, userID string) ([]*models.SubPortfolio, error)
	SaveSubPortfolio(ctx context.Context, sp *models.SubPortfolio) error
}

// PriceStore persists per-ticker EOD close series. Benchmark series are
// stored the same way, keyed by benchmark ticker.
type PriceStore interface {
	GetSeries(ctx context.Context, ticker string) (*models.PriceSeries, error)
	GetSeriesBatch(ctx context.Context, tickers []string) ([]*models.PriceSeries, error)
	SaveSeries(ctx context.Context, series *models.PriceSeries) error
}

// UserStore resolves bearer-token subjects to user accounts.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
}
