package models

import "time"

// PricePoint is one end-of-day close for a ticker.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries holds the sparse EOD close history for one ticker, sorted by
// date ascending. Not every ticker has a price for every date.
type PriceSeries struct {
	Ticker      string       `json:"ticker"`
	Points      []PricePoint `json:"points"`
	LastUpdated time.Time    `json:"last_updated"`
}

// Empty returns true when the series has no points.
func (s *PriceSeries) Empty() bool {
	return s == nil || len(s.Points) == 0
}
