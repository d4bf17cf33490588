package performance

import (
	"sort"
	"time"

	"github.com/foliotrack/foliotrack/internal/models"
)

// Lot is an open FIFO parcel during ledger replay.
type Lot struct {
	AssetID      string
	AccountID    string
	PurchaseDate time.Time
	Quantity     float64
	CostPerUnit  float64
}

// ReplayResult is the outcome of replaying a transaction slice through the
// FIFO lot machine up to a cutoff date.
type ReplayResult struct {
	// Lots holds the open lots per asset ID, oldest first.
	Lots map[string][]Lot

	// Realized is the cumulative realized gain from sells, computed lot by
	// lot against FIFO cost basis rather than trusted from stored fields.
	Realized float64
}

// sortTransactions orders transactions by date, preserving ledger insertion
// order for same-date entries so replay is deterministic.
func sortTransactions(txs []*models.Transaction) []*models.Transaction {
	sorted := make([]*models.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// costPerUnit derives the per-unit cost basis of a buy. The recorded price
// per unit wins; transactions imported without one fall back to amount over
// quantity.
func costPerUnit(tx *models.Transaction) float64 {
	if tx.PricePerUnit > 0 {
		return tx.PricePerUnit
	}
	if tx.Quantity > 0 {
		return tx.Amount / tx.Quantity
	}
	return 0
}

// ReplayFIFO reconstructs open lots by replaying buys and sells dated on or
// before cutoff, in date order with stable ties. Sells consume the oldest
// lots first; a sell exceeding the held quantity consumes what exists and
// the excess is ignored rather than driving the position negative.
func ReplayFIFO(txs []*models.Transaction, cutoff time.Time) ReplayResult {
	result := ReplayResult{Lots: make(map[string][]Lot)}

	for _, tx := range sortTransactions(txs) {
		if tx.Date.After(cutoff) {
			break
		}
		if tx.AssetID == "" || tx.Quantity <= 0 {
			continue
		}

		switch tx.Type {
		case models.TxBuy:
			result.Lots[tx.AssetID] = append(result.Lots[tx.AssetID], Lot{
				AssetID:      tx.AssetID,
				AccountID:    tx.AccountID,
				PurchaseDate: tx.Date,
				Quantity:     tx.Quantity,
				CostPerUnit:  costPerUnit(tx),
			})

		case models.TxSell:
			remaining := tx.Quantity
			sellPrice := tx.PricePerUnit
			if sellPrice <= 0 && tx.Quantity > 0 {
				sellPrice = tx.Amount / tx.Quantity
			}

			lots := result.Lots[tx.AssetID]
			for remaining > 0 && len(lots) > 0 {
				lot := &lots[0]
				consumed := remaining
				if consumed > lot.Quantity {
					consumed = lot.Quantity
				}
				result.Realized += consumed * (sellPrice - lot.CostPerUnit)
				lot.Quantity -= consumed
				remaining -= consumed
				if lot.Quantity <= 0 {
					lots = lots[1:]
				}
			}
			result.Lots[tx.AssetID] = lots
		}
	}

	for assetID, lots := range result.Lots {
		if len(lots) == 0 {
			delete(result.Lots, assetID)
		}
	}
	return result
}

// HeldQuantity sums the open lot quantity for one asset.
func (r ReplayResult) HeldQuantity(assetID string) float64 {
	var total float64
	for _, lot := range r.Lots[assetID] {
		total += lot.Quantity
	}
	return total
}

// Basis sums the remaining cost basis across all open lots.
func (r ReplayResult) Basis() float64 {
	var total float64
	for _, lots := range r.Lots {
		for _, lot := range lots {
			total += lot.Quantity * lot.CostPerUnit
		}
	}
	return total
}
