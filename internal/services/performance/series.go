package performance

import (
	"math"
	"time"

	"github.com/foliotrack/foliotrack/internal/models"
)

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfMonth(t time.Time) time.Time {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}

// dateGrid builds the evaluation dates for a request window. Daily grids
// cover every calendar day. Monthly grids hold each month-end in range plus
// both window endpoints, so the series always starts and ends exactly on
// the requested range.
func dateGrid(from, to time.Time, granularity string) []time.Time {
	from, to = dayOf(from), dayOf(to)
	if to.Before(from) {
		to = from
	}

	if granularity == models.GranularityMonthly {
		grid := []time.Time{from}
		cursor := endOfMonth(from)
		for cursor.Before(to) {
			if cursor.After(from) {
				grid = append(grid, cursor)
			}
			cursor = endOfMonth(cursor.AddDate(0, 0, 1))
		}
		if grid[len(grid)-1] != to {
			grid = append(grid, to)
		}
		return grid
	}

	grid := make([]time.Time, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		grid = append(grid, d)
	}
	return grid
}

// buildGroupSeries evaluates one group across the date grid and rebases the
// result to the window's first point. Flow components (contributions,
// realized, income) are in-window deltas; NetGain is their sum with the
// unrealized movement, so the gain decomposition holds exactly at every
// point. The IRR at each point is solved over the window's boundary flows
// bracketed by the starting and current valuations; when the solver returns
// NaN the annualized total return stands in, flagged via IRRFallback.
func buildGroupSeries(g *Group, grid []time.Time, cat *catalog, prices *priceIndex, includeExternalFunding bool) []models.ReturnRecord {
	if len(grid) == 0 {
		return nil
	}

	valuations := make([]valuation, len(grid))
	for i, date := range grid {
		valuations[i] = valueGroup(g, date, cat, prices)
	}
	base := valuations[0]

	// Flows dated inside the window, exclusive of the first grid point; the
	// starting valuation already embodies everything up to and including it.
	var windowTxs []*models.Transaction
	for _, tx := range g.Transactions {
		if tx.Date.After(grid[0]) {
			windowTxs = append(windowTxs, tx)
		}
	}
	windowFlows := IRRFlows(windowTxs, g.IncludesCash, includeExternalFunding)

	records := make([]models.ReturnRecord, len(grid))
	for i, v := range valuations {
		rec := models.ReturnRecord{PortfolioState: v.state}
		rec.NetContributions = v.contributions - base.contributions
		rec.Realized = v.realized - base.realized
		rec.Income = v.income - base.income

		unrealized := v.state.Unrealized - base.state.Unrealized
		rec.NetGain = unrealized + rec.Realized + rec.Income

		denominator := base.state.PortfolioValue
		if rec.NetContributions > 0 {
			denominator += rec.NetContributions
		}
		if denominator <= 0 {
			denominator = v.state.TotalBasis
		}
		if denominator > 0 {
			rec.TotalReturnPct = rec.NetGain / denominator * 100
		}

		if i > 0 {
			rec.IRR, rec.IRRFallback = pointIRR(grid[0], grid[i], base.state.PortfolioValue, v.state.PortfolioValue, windowFlows, rec.TotalReturnPct)
		}
		records[i] = rec
	}

	rebaseTWR(records)
	return records
}

// pointIRR solves the money-weighted return from the window start to one
// grid date: an outflow of the starting value, the boundary flows dated in
// between, and an inflow of the current value.
func pointIRR(start, end time.Time, startValue, endValue float64, windowFlows []CashFlow, totalReturnPct float64) (float64, bool) {
	flows := make([]CashFlow, 0, len(windowFlows)+2)
	if startValue != 0 {
		flows = append(flows, CashFlow{Date: start, Amount: -startValue})
	}
	for _, f := range windowFlows {
		if f.Date.After(end) {
			break
		}
		flows = append(flows, f)
	}
	if endValue != 0 {
		flows = append(flows, CashFlow{Date: end, Amount: endValue})
	}

	rate := SolveIRR(flows)
	if math.IsNaN(rate) {
		return annualizedReturn(totalReturnPct, start, end), true
	}
	return rate * 100, false
}

// buildBenchmarks normalizes each benchmark's closes to percentage returns
// from the window's first resolvable close, aligned to the grid. Benchmarks
// with no data in range are dropped and reported as missing.
func buildBenchmarks(tickers []string, grid []time.Time, prices *priceIndex) map[string][]models.BenchmarkPoint {
	if len(tickers) == 0 || len(grid) == 0 {
		return nil
	}

	out := make(map[string][]models.BenchmarkPoint, len(tickers))
	for _, ticker := range tickers {
		baseClose, ok := prices.closeAt(ticker, grid[0])
		if !ok || baseClose <= 0 {
			continue
		}
		points := make([]models.BenchmarkPoint, 0, len(grid))
		for _, date := range grid {
			close, ok := prices.closeAt(ticker, date)
			if !ok {
				continue
			}
			points = append(points, models.BenchmarkPoint{
				Date:      date,
				ReturnPct: (close/baseClose - 1) * 100,
			})
		}
		out[ticker] = points
	}
	return out
}
