package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/foliotrack/foliotrack/internal/common"
	"github.com/foliotrack/foliotrack/internal/interfaces"
	"github.com/foliotrack/foliotrack/internal/models"
)

// LedgerStore persists transactions, tax lots, and grouping metadata.
type LedgerStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewLedgerStore(db *surrealdb.DB, logger *common.Logger) *LedgerStore {
	return &LedgerStore{db: db, logger: logger}
}

var _ interfaces.LedgerStore = (*LedgerStore)(nil)

// upsert writes a record by ID with a small retry loop; transient websocket
// errors on writes are common enough under load to be worth absorbing here.
func upsert[T any](ctx context.Context, db *surrealdb.DB, table, id string, data *T) error {
	sql := "UPSERT $rid CONTENT $data"
	vars := map[string]any{"rid": surrealmodels.NewRecordID(table, id), "data": data}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]T](ctx, db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save %s after retries: %w", table, lastErr)
}

// listForUser runs a user-scoped SELECT and flattens the driver result.
func listForUser[T any](ctx context.Context, db *surrealdb.DB, sql, userID string, extra map[string]any) ([]*T, error) {
	vars := map[string]any{"user_id": userID}
	for k, v := range extra {
		vars[k] = v
	}

	results, err := surrealdb.Query[[]T](ctx, db, sql, vars)
	if err != nil {
		return nil, err
	}

	var mapped []*T
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
	}
	return mapped, nil
}

// --- Transactions ---

// ListTransactions returns a user's transactions ordered by date with ties
// in insertion order. Zero-valued bounds are unbounded.
func (s *LedgerStore) ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]*models.Transaction, error) {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM transaction WHERE user_id = $user_id")
	vars := map[string]any{}
	if !from.IsZero() {
		sb.WriteString(" AND date >= $from")
		vars["from"] = from
	}
	if !to.IsZero() {
		sb.WriteString(" AND date <= $to")
		vars["to"] = to
	}
	sb.WriteString(" ORDER BY date ASC, created_at ASC")

	txs, err := listForUser[models.Transaction](ctx, s.db, sb.String(), userID, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (s *LedgerStore) GetTransaction(ctx context.Context, userID, id string) (*models.Transaction, error) {
	tx, err := surrealdb.Select[models.Transaction](ctx, s.db, surrealmodels.NewRecordID("transaction", id))
	if err != nil {
		return nil, fmt.Errorf("failed to select transaction: %w", err)
	}
	if tx == nil || tx.UserID != userID {
		return nil, fmt.Errorf("transaction %s not found", id)
	}
	return tx, nil
}

func (s *LedgerStore) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	return upsert(ctx, s.db, "transaction", tx.ID, tx)
}

func (s *LedgerStore) DeleteTransaction(ctx context.Context, userID, id string) error {
	if _, err := s.GetTransaction(ctx, userID, id); err != nil {
		return err
	}
	sql := "DELETE $rid"
	vars := map[string]any{"rid": surrealmodels.NewRecordID("transaction", id)}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// --- Tax lots ---

func (s *LedgerStore) ListLots(ctx context.Context, userID string) ([]*models.TaxLot, error) {
	sql := "SELECT * FROM tax_lot WHERE user_id = $user_id ORDER BY purchase_date ASC"
	lots, err := listForUser[models.TaxLot](ctx, s.db, sql, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax lots: %w", err)
	}
	return lots, nil
}

func (s *LedgerStore) SaveLot(ctx context.Context, lot *models.TaxLot) error {
	return upsert(ctx, s.db, "tax_lot", lot.ID, lot)
}

func (s *LedgerStore) DeleteLot(ctx context.Context, userID, id string) error {
	lot, err := surrealdb.Select[models.TaxLot](ctx, s.db, surrealmodels.NewRecordID("tax_lot", id))
	if err != nil {
		return fmt.Errorf("failed to select tax lot: %w", err)
	}
	if lot == nil || lot.UserID != userID {
		return fmt.Errorf("tax lot %s not found", id)
	}
	sql := "DELETE $rid"
	vars := map[string]any{"rid": surrealmodels.NewRecordID("tax_lot", id)}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to delete tax lot: %w", err)
	}
	return nil
}

// --- Grouping metadata ---

func (s *LedgerStore) ListAssets(ctx context.Context, userID string) ([]*models.Asset, error) {
	sql := "SELECT * FROM asset WHERE user_id = $user_id ORDER BY ticker ASC"
	assets, err := listForUser[models.Asset](ctx, s.db, sql, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, nil
}

func (s *LedgerStore) SaveAsset(ctx context.Context, asset *models.Asset) error {
	return upsert(ctx, s.db, "asset", asset.ID, asset)
}

func (s *LedgerStore) ListAccounts(ctx context.Context, userID string) ([]*models.Account, error) {
	sql := "SELECT * FROM account WHERE user_id = $user_id ORDER BY name ASC"
	accounts, err := listForUser[models.Account](ctx, s.db, sql, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (s *LedgerStore) SaveAccount(ctx context.Context, account *models.Account) error {
	return upsert(ctx, s.db, "account", account.ID, account)
}

func (s *LedgerStore) ListSubPortfolios(ctx context.Context, userID string) ([]*models.SubPortfolio, error) {
	sql := "SELECT * FROM sub_portfolio WHERE user_id = $user_id ORDER BY name ASC"
	subs, err := listForUser[models.SubPortfolio](ctx, s.db, sql, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-portfolios: %w", err)
	}
	return subs, nil
}

func (s *LedgerStore) SaveSubPortfolio(ctx context.Context, sp *models.SubPortfolio) error {
	return upsert(ctx, s.db, "sub_portfolio", sp.ID, sp)
}
