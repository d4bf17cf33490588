// Package surrealdb implements the storage interfaces on SurrealDB with
// schemaless tables and record IDs derived from natural keys.
package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/foliotrack/foliotrack/internal/common"
	"github.com/foliotrack/foliotrack/internal/interfaces"
)

// Manager implements interfaces.StorageManager using SurrealDB.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger

	ledgerStore *LedgerStore
	priceStore  *PriceStore
	userStore   *UserStore
}

// NewManager creates a new StorageManager connected to SurrealDB.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	ctx := context.Background()

	db, err := surrealdb.New(config.Storage.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Storage.Username,
		"pass": config.Storage.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Storage.Namespace, config.Storage.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	// Define tables up front; SurrealDB v3 errors on querying tables that
	// do not exist yet.
	tables := []string{"transaction", "tax_lot", "asset", "account", "sub_portfolio", "price_series", "user"}
	for _, table := range tables {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}

	m := &Manager{
		db:     db,
		logger: logger,
	}

	m.ledgerStore = NewLedgerStore(db, logger)
	m.priceStore = NewPriceStore(db, logger)
	m.userStore = NewUserStore(db, logger)

	logger.Info().
		Str("address", config.Storage.Address).
		Str("namespace", config.Storage.Namespace).
		Str("database", config.Storage.Database).
		Msg("SurrealDB storage manager initialized")

	return m, nil
}

func (m *Manager) LedgerStore() interfaces.LedgerStore {
	return m.ledgerStore
}

func (m *Manager) PriceStore() interfaces.PriceStore {
	return m.priceStore
}

func (m *Manager) UserStore() interfaces.UserStore {
	return m.userStore
}

func (m *Manager) Close() error {
	m.db.Close(context.Background())
	return nil
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
