// Package performance implements the portfolio performance analytics engine:
// cash-flow normalization, FIFO lot reconstruction, valuation, money-weighted
// and time-weighted return calculation, grouping, and time-series assembly.
package performance

import (
	"time"

	"github.com/foliotrack/foliotrack/internal/models"
)

// CashFlow is a single dated cash flow for IRR calculation.
// Negative values = money out of the investor's pocket, positive = money in.
type CashFlow struct {
	Date   time.Time
	Amount float64
}

// Normalize maps a transaction to its signed scalar cash flow. Amount and
// Fees are stored as non-negative magnitudes; the sign is derived here from
// the transaction type, with fees applied in the direction that increases
// cost to the investor. The second return value is false for transactions
// that produce no flow (fee-only entries, excluded externally-funded buys).
func Normalize(tx *models.Transaction, includeExternalFunding bool) (float64, bool) {
	switch tx.Type {
	case models.TxBuy:
		if tx.ExternallyFunded() {
			// The position still enters FIFO lots, but no cash left the
			// portfolio. Optionally included at zero so the date appears in
			// the flow series.
			if includeExternalFunding {
				return 0, true
			}
			return 0, false
		}
		return -(tx.Amount + tx.Fees), true
	case models.TxSell:
		return tx.Amount - tx.Fees, true
	case models.TxDividend, models.TxInterest:
		return tx.Amount - tx.Fees, true
	case models.TxDeposit:
		return tx.Amount - tx.Fees, true
	case models.TxWithdrawal:
		return -(tx.Amount + tx.Fees), true
	case models.TxFee:
		// Already netted into other flows; still reduces the cash balance.
		return 0, false
	}
	return 0, false
}

// CashDelta returns the transaction's contribution to the running per-account
// cash balance. Sign rules mirror Normalize with two exceptions: fee-only
// transactions do reduce the balance, and auto-generated funding records for
// externally-funded buys are skipped to avoid counting the external money
// twice.
func CashDelta(tx *models.Transaction) float64 {
	if tx.AutoFunding {
		return 0
	}
	switch tx.Type {
	case models.TxBuy:
		if tx.ExternallyFunded() {
			return 0
		}
		return -(tx.Amount + tx.Fees)
	case models.TxSell:
		return tx.Amount - tx.Fees
	case models.TxDividend, models.TxInterest:
		return tx.Amount - tx.Fees
	case models.TxDeposit:
		return tx.Amount - tx.Fees
	case models.TxWithdrawal:
		return -(tx.Amount + tx.Fees)
	case models.TxFee:
		return -(tx.Amount + tx.Fees)
	}
	return 0
}

// ContributionDelta returns the transaction's contribution to the running
// net-contributions total (external capital in minus capital out). Unlike
// CashDelta, auto-funding deposits count; they represent real external money
// entering the portfolio.
func ContributionDelta(tx *models.Transaction) float64 {
	switch tx.Type {
	case models.TxDeposit:
		return tx.Amount
	case models.TxWithdrawal:
		return -tx.Amount
	}
	return 0
}

// IncomeDelta returns the transaction's contribution to cumulative income
// (dividends and interest, net of fees).
func IncomeDelta(tx *models.Transaction) float64 {
	switch tx.Type {
	case models.TxDividend, models.TxInterest:
		return tx.Amount - tx.Fees
	}
	return 0
}

// boundaryFlow maps a transaction to its investor-perspective IRR cash flow
// for a group that includes cash (total and account lenses). Only flows
// crossing the portfolio boundary appear: contributions are negative (money
// invested), withdrawals positive (money received). Buys, sells, dividends,
// and fees are internal; their effect is captured by the terminal valuation.
func boundaryFlow(tx *models.Transaction, includeExternalFunding bool) (float64, bool) {
	switch tx.Type {
	case models.TxDeposit:
		return -(tx.Amount - tx.Fees), true
	case models.TxWithdrawal:
		return tx.Amount + tx.Fees, true
	case models.TxBuy:
		// Externally-funded buys are mirrored by an auto-funding deposit;
		// treating the buy itself as a boundary flow would double-count.
		if tx.ExternallyFunded() && includeExternalFunding {
			return 0, true
		}
		return 0, false
	}
	return 0, false
}

// groupFlow maps a transaction to its IRR cash flow for a cash-less group
// (asset-derived lenses and per-asset breakdowns). Buys move money into the
// group, sells and income move money out to the investor's cash.
func groupFlow(tx *models.Transaction, includeExternalFunding bool) (float64, bool) {
	switch tx.Type {
	case models.TxBuy:
		if tx.ExternallyFunded() {
			// Capital entered from outside; the position appears in lots
			// either way.
			if includeExternalFunding {
				return -(tx.Amount + tx.Fees), true
			}
			return 0, false
		}
		return -(tx.Amount + tx.Fees), true
	case models.TxSell, models.TxDividend, models.TxInterest:
		return tx.Amount - tx.Fees, true
	}
	return 0, false
}

// IRRFlows assembles the dated cash-flow series for a group's transactions.
// includesCash selects the boundary-flow model (total/account lenses, where
// the terminal value covers cash) or the group-flow model (asset lenses).
func IRRFlows(txs []*models.Transaction, includesCash, includeExternalFunding bool) []CashFlow {
	flows := make([]CashFlow, 0, len(txs))
	for _, tx := range txs {
		var amt float64
		var ok bool
		if includesCash {
			amt, ok = boundaryFlow(tx, includeExternalFunding)
		} else {
			amt, ok = groupFlow(tx, includeExternalFunding)
		}
		if !ok {
			continue
		}
		flows = append(flows, CashFlow{Date: tx.Date, Amount: amt})
	}
	return flows
}
