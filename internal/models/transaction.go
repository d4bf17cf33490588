package models

import "time"

// TransactionType categorizes a ledger transaction.
type TransactionType string

const (
	TxBuy        TransactionType = "buy"
	TxSell       TransactionType = "sell"
	TxDeposit    TransactionType = "deposit"
	TxWithdrawal TransactionType = "withdrawal"
	TxDividend   TransactionType = "dividend"
	TxInterest   TransactionType = "interest"
	TxFee        TransactionType = "fee"
)

// validTransactionTypes lists all accepted transaction types.
var validTransactionTypes = map[TransactionType]bool{
	TxBuy:        true,
	TxSell:       true,
	TxDeposit:    true,
	TxWithdrawal: true,
	TxDividend:   true,
	TxInterest:   true,
	TxFee:        true,
}

// ValidTransactionType returns true if t is a valid transaction type.
func ValidTransactionType(t TransactionType) bool {
	return validTransactionTypes[t]
}

// FundingSource identifies where the money for a buy came from.
type FundingSource string

const (
	FundingCash     FundingSource = "cash"
	FundingExternal FundingSource = "external"
)

// Transaction is a single immutable ledger entry. Amount and Fees are always
// non-negative magnitudes; direction is derived from Type, never stored
// pre-signed. Ordering is by Date with ties broken by ledger insertion order.
type Transaction struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Date          time.Time       `json:"date"`
	Type          TransactionType `json:"type"`
	AssetID       string          `json:"asset_id,omitempty"`
	AccountID     string          `json:"account_id,omitempty"`
	Quantity      float64         `json:"quantity,omitempty"`
	PricePerUnit  float64         `json:"price_per_unit,omitempty"`
	Amount        float64         `json:"amount"`
	Fees          float64         `json:"fees"`
	RealizedGain  float64         `json:"realized_gain,omitempty"`
	FundingSource FundingSource   `json:"funding_source,omitempty"`

	// AutoFunding marks a deposit generated automatically to mirror an
	// externally-funded buy. Excluded from cash balance accumulation so the
	// external money is not counted twice.
	AutoFunding bool `json:"auto_funding,omitempty"`

	// SourceTxID links an auto-funding deposit back to the buy it mirrors,
	// so edits and deletes of the buy reconcile the mirror.
	SourceTxID string `json:"source_tx_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExternallyFunded returns true for buys paid from outside the tracked cash
// balance.
func (t *Transaction) ExternallyFunded() bool {
	return t.Type == TxBuy && t.FundingSource == FundingExternal
}

// TaxLot is a parcel of an asset purchased at a specific date and price.
// RemainingQuantity reflects the current state only; historical remaining
// quantities are derived by FIFO replay of the transaction ledger.
type TaxLot struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	AssetID           string    `json:"asset_id"`
	AccountID         string    `json:"account_id,omitempty"`
	PurchaseDate      time.Time `json:"purchase_date"`
	Quantity          float64   `json:"quantity"`
	CostBasisPerUnit  float64   `json:"cost_basis_per_unit"`
	RemainingQuantity float64   `json:"remaining_quantity"`
}
