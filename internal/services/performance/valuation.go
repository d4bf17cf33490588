package performance

import (
	"sort"
	"time"

	"github.com/foliotrack/foliotrack/internal/models"
)

// priceIndex resolves closing prices by ticker and date for a series run.
// Dates on or after liveAt prefer the live quote when one was fetched.
// Tickers that had no usable data accumulate in missing.
type priceIndex struct {
	series  map[string]*models.PriceSeries
	live    map[string]float64
	liveAt  time.Time
	missing map[string]bool
}

func newPriceIndex(series map[string]*models.PriceSeries, live map[string]float64, liveAt time.Time) *priceIndex {
	return &priceIndex{
		series:  series,
		live:    live,
		liveAt:  liveAt,
		missing: make(map[string]bool),
	}
}

// closeAt returns the price for a ticker at a date using forward-fill: the
// most recent close on or before the date. Dates before the first known
// close fall back to that earliest close rather than zero, so early series
// points are not valued as if the position were worthless.
func (p *priceIndex) closeAt(ticker string, date time.Time) (float64, bool) {
	if !p.liveAt.IsZero() && !date.Before(p.liveAt) {
		if quote, ok := p.live[ticker]; ok && quote > 0 {
			return quote, true
		}
	}

	s, ok := p.series[ticker]
	if !ok || s.Empty() {
		p.missing[ticker] = true
		return 0, false
	}

	points := s.Points
	// First point after date; the close before it is the forward-fill value.
	i := sort.Search(len(points), func(i int) bool {
		return points[i].Date.After(date)
	})
	if i == 0 {
		return points[0].Close, true
	}
	return points[i-1].Close, true
}

// missingTickers returns the tickers that could not be priced, sorted.
func (p *priceIndex) missingTickers() []string {
	if len(p.missing) == 0 {
		return nil
	}
	tickers := make([]string, 0, len(p.missing))
	for t := range p.missing {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// valuation is the cumulative-since-inception state of one group at one
// date. Flow components here are lifetime totals; rebasing to the request
// window happens during series assembly.
type valuation struct {
	state         models.PortfolioState
	contributions float64
	realized      float64
	income        float64
}

// tickerOf maps an asset ID to its pricing ticker, falling back to the raw
// ID for assets missing from the catalog.
func (c *catalog) tickerOf(assetID string) string {
	if asset, ok := c.assets[assetID]; ok && asset.Ticker != "" {
		return asset.Ticker
	}
	return assetID
}

// valueGroup computes a group's full valuation at one date: FIFO lot replay
// for holdings and realized gains, forward-filled closes for market value,
// and cash/contribution/income accumulation over the ledger.
func valueGroup(g *Group, asOf time.Time, cat *catalog, prices *priceIndex) valuation {
	replay := ReplayFIFO(g.Transactions, asOf)

	var marketValue, basis float64
	for assetID, lots := range replay.Lots {
		price, ok := prices.closeAt(cat.tickerOf(assetID), asOf)
		for _, lot := range lots {
			basis += lot.Quantity * lot.CostPerUnit
			if ok {
				marketValue += lot.Quantity * price
			}
		}
	}

	v := valuation{realized: replay.Realized}
	for _, tx := range g.Transactions {
		if tx.Date.After(asOf) {
			continue
		}
		if g.IncludesCash {
			v.state.Cash += CashDelta(tx)
		}
		v.contributions += ContributionDelta(tx)
		v.income += IncomeDelta(tx)
	}

	v.state.Date = asOf
	v.state.MarketValue = marketValue
	v.state.TotalBasis = basis
	v.state.Unrealized = marketValue - basis
	v.state.PortfolioValue = marketValue + v.state.Cash
	return v
}
