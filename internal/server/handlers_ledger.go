package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/foliotrack/foliotrack/internal/models"
	"github.com/foliotrack/foliotrack/internal/services/performance"
)

// validateTransaction checks the invariants of a ledger entry before it is
// written: magnitudes are non-negative and asset-linked types carry an asset
// and quantity.
func validateTransaction(tx *models.Transaction) error {
	if !models.ValidTransactionType(tx.Type) {
		return fmt.Errorf("invalid transaction type %q", tx.Type)
	}
	if tx.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if tx.Amount < 0 || tx.Fees < 0 || tx.Quantity < 0 || tx.PricePerUnit < 0 {
		return fmt.Errorf("amount, fees, quantity, and price_per_unit must be non-negative")
	}
	switch tx.Type {
	case models.TxBuy, models.TxSell:
		if tx.AssetID == "" {
			return fmt.Errorf("%s requires an asset_id", tx.Type)
		}
		if tx.Quantity <= 0 {
			return fmt.Errorf("%s requires a positive quantity", tx.Type)
		}
	}
	if tx.FundingSource != "" && tx.FundingSource != models.FundingCash && tx.FundingSource != models.FundingExternal {
		return fmt.Errorf("invalid funding_source %q", tx.FundingSource)
	}
	if tx.FundingSource == models.FundingExternal && tx.Type != models.TxBuy {
		return fmt.Errorf("funding_source external only applies to buys")
	}
	return nil
}

// rebuildLots recomputes the stored tax-lot snapshot from the full ledger
// after any holding-affecting write. Historical lot state is always derived
// by replay; the stored rows exist for direct inspection via the API.
func (s *Server) rebuildLots(ctx context.Context, userID string) error {
	ledger := s.app.Storage.LedgerStore()

	txs, err := ledger.ListTransactions(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}

	existing, err := ledger.ListLots(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load lots: %w", err)
	}
	for _, lot := range existing {
		if err := ledger.DeleteLot(ctx, userID, lot.ID); err != nil {
			s.logger.Warn().Err(err).Str("lot_id", lot.ID).Msg("Stale lot delete failed")
		}
	}

	replay := performance.ReplayFIFO(txs, time.Now().UTC())
	for assetID, lots := range replay.Lots {
		for _, lot := range lots {
			record := &models.TaxLot{
				ID:                uuid.New().String(),
				UserID:            userID,
				AssetID:           assetID,
				AccountID:         lot.AccountID,
				PurchaseDate:      lot.PurchaseDate,
				Quantity:          lot.Quantity,
				CostBasisPerUnit:  lot.CostPerUnit,
				RemainingQuantity: lot.Quantity,
			}
			if err := ledger.SaveLot(ctx, record); err != nil {
				return fmt.Errorf("failed to save lot: %w", err)
			}
		}
	}
	return nil
}

// findFundingMirror returns the auto-funding deposit generated for a buy,
// or nil when none exists.
func (s *Server) findFundingMirror(ctx context.Context, userID, buyID string) (*models.Transaction, error) {
	txs, err := s.app.Storage.LedgerStore().ListTransactions(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	for _, tx := range txs {
		if tx.AutoFunding && tx.SourceTxID == buyID {
			return tx, nil
		}
	}
	return nil, nil
}

// syncFundingMirror reconciles the mirrored deposit of an externally-funded
// buy with the buy's current state: created when the buy is external, updated
// when its amount or date changed, removed when the funding source moved back
// to cash. Without this, an edited or deleted buy would leave its mirror
// behind and permanently inflate net contributions.
func (s *Server) syncFundingMirror(ctx context.Context, userID string, tx *models.Transaction) error {
	ledger := s.app.Storage.LedgerStore()

	mirror, err := s.findFundingMirror(ctx, userID, tx.ID)
	if err != nil {
		return err
	}

	if !tx.ExternallyFunded() {
		if mirror != nil {
			return ledger.DeleteTransaction(ctx, userID, mirror.ID)
		}
		return nil
	}

	now := time.Now().UTC()
	if mirror == nil {
		mirror = &models.Transaction{
			ID:          uuid.New().String(),
			UserID:      userID,
			Type:        models.TxDeposit,
			AutoFunding: true,
			SourceTxID:  tx.ID,
			CreatedAt:   now,
		}
	}
	mirror.Date = tx.Date
	mirror.AccountID = tx.AccountID
	mirror.Amount = tx.Amount + tx.Fees
	mirror.UpdatedAt = now
	return ledger.SaveTransaction(ctx, mirror)
}

// --- Transactions ---

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ledger := s.app.Storage.LedgerStore()

	if r.Method == http.MethodGet {
		var from, to time.Time
		q := r.URL.Query()
		if raw := q.Get("from"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "Invalid from: expected YYYY-MM-DD")
				return
			}
			from = parsed
		}
		if raw := q.Get("to"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "Invalid to: expected YYYY-MM-DD")
				return
			}
			to = parsed
		}

		txs, err := ledger.ListTransactions(r.Context(), userID, from, to)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"transactions": txs,
			"count":        len(txs),
		})
		return
	}

	var tx models.Transaction
	if !DecodeJSON(w, r, &tx) {
		return
	}
	if err := validateTransaction(&tx); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now().UTC()
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	tx.UserID = userID
	tx.AutoFunding = false
	tx.CreatedAt = now
	tx.UpdatedAt = now

	if err := ledger.SaveTransaction(r.Context(), &tx); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// An externally-funded buy records its capital as a mirrored deposit so
	// net contributions stay accurate while the cash balance is untouched.
	if tx.ExternallyFunded() {
		if err := s.syncFundingMirror(r.Context(), userID, &tx); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if tx.Type == models.TxBuy || tx.Type == models.TxSell {
		if err := s.rebuildLots(r.Context(), userID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("Lot snapshot rebuild failed")
		}
	}

	WriteJSON(w, http.StatusCreated, &tx)
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := PathParam(r, "/api/transactions/", "")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Transaction ID is required")
		return
	}

	ledger := s.app.Storage.LedgerStore()

	switch r.Method {
	case http.MethodGet:
		tx, err := ledger.GetTransaction(r.Context(), userID, id)
		if err != nil {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, tx)

	case http.MethodPut:
		existing, err := ledger.GetTransaction(r.Context(), userID, id)
		if err != nil {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}

		var tx models.Transaction
		if !DecodeJSON(w, r, &tx) {
			return
		}
		tx.ID = existing.ID
		tx.UserID = userID
		tx.AutoFunding = existing.AutoFunding
		tx.SourceTxID = existing.SourceTxID
		tx.CreatedAt = existing.CreatedAt
		tx.UpdatedAt = time.Now().UTC()
		if err := validateTransaction(&tx); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := ledger.SaveTransaction(r.Context(), &tx); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if tx.Type == models.TxBuy {
			if err := s.syncFundingMirror(r.Context(), userID, &tx); err != nil {
				WriteError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		if err := s.rebuildLots(r.Context(), userID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("Lot snapshot rebuild failed")
		}
		WriteJSON(w, http.StatusOK, &tx)

	case http.MethodDelete:
		if err := ledger.DeleteTransaction(r.Context(), userID, id); err != nil {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		// A deleted external buy takes its mirrored deposit with it.
		if mirror, err := s.findFundingMirror(r.Context(), userID, id); err == nil && mirror != nil {
			if err := ledger.DeleteTransaction(r.Context(), userID, mirror.ID); err != nil {
				s.logger.Warn().Err(err).Str("mirror_id", mirror.ID).Msg("Funding mirror delete failed")
			}
		}
		if err := s.rebuildLots(r.Context(), userID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("Lot snapshot rebuild failed")
		}
		WriteJSON(w, http.StatusOK, map[string]string{"deleted": id})
	}
}

// --- Lots ---

func (s *Server) handleLots(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	lots, err := s.app.Storage.LedgerStore().ListLots(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"lots":  lots,
		"count": len(lots),
	})
}

// --- Grouping metadata ---

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ledger := s.app.Storage.LedgerStore()

	if r.Method == http.MethodGet {
		assets, err := ledger.ListAssets(r.Context(), userID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"assets": assets,
			"count":  len(assets),
		})
		return
	}

	var asset models.Asset
	if !DecodeJSON(w, r, &asset) {
		return
	}
	if asset.Ticker == "" {
		WriteError(w, http.StatusBadRequest, "Ticker is required")
		return
	}
	now := time.Now().UTC()
	if asset.ID == "" {
		asset.ID = uuid.New().String()
		asset.CreatedAt = now
	}
	asset.UserID = userID
	asset.UpdatedAt = now

	if err := ledger.SaveAsset(r.Context(), &asset); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, &asset)
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ledger := s.app.Storage.LedgerStore()

	if r.Method == http.MethodGet {
		accounts, err := ledger.ListAccounts(r.Context(), userID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"accounts": accounts,
			"count":    len(accounts),
		})
		return
	}

	var account models.Account
	if !DecodeJSON(w, r, &account) {
		return
	}
	if account.Name == "" {
		WriteError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if account.ID == "" {
		account.ID = uuid.New().String()
		account.CreatedAt = time.Now().UTC()
	}
	account.UserID = userID

	if err := ledger.SaveAccount(r.Context(), &account); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, &account)
}

func (s *Server) handleSubPortfolios(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ledger := s.app.Storage.LedgerStore()

	if r.Method == http.MethodGet {
		subs, err := ledger.ListSubPortfolios(r.Context(), userID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"sub_portfolios": subs,
			"count":          len(subs),
		})
		return
	}

	var sp models.SubPortfolio
	if !DecodeJSON(w, r, &sp) {
		return
	}
	if sp.Name == "" {
		WriteError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if sp.ID == "" {
		sp.ID = uuid.New().String()
		sp.CreatedAt = time.Now().UTC()
	}
	sp.UserID = userID

	if err := ledger.SaveSubPortfolio(r.Context(), &sp); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, &sp)
}
