package models

import "time"

// Asset holds descriptive metadata used as grouping keys. It has no behavior
// of its own in the analytics engine.
type Asset struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Ticker         string    `json:"ticker"`
	Name           string    `json:"name,omitempty"`
	AssetType      string    `json:"asset_type,omitempty"`
	AssetSubtype   string    `json:"asset_subtype,omitempty"`
	Geography      string    `json:"geography,omitempty"`
	SizeTag        string    `json:"size_tag,omitempty"`
	FactorTag      string    `json:"factor_tag,omitempty"`
	SubPortfolioID string    `json:"sub_portfolio_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Account is a brokerage or cash account transactions belong to.
type Account struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// SubPortfolio is a user-defined slice of the portfolio (e.g. "Core",
// "Speculative") assets can be assigned to.
type SubPortfolio struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
