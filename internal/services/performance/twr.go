package performance

import (
	"math"
	"time"

	"github.com/foliotrack/foliotrack/internal/models"
)

// rebaseTWR fills the time-weighted return column in a second pass over a
// completed series: each point's TWR is its portfolio value relative to the
// first in-range value. A zero or negative starting value yields zero for
// the whole series.
func rebaseTWR(records []models.ReturnRecord) {
	if len(records) == 0 {
		return
	}
	base := records[0].PortfolioValue
	if base <= 0 {
		for i := range records {
			records[i].TWR = 0
		}
		return
	}
	for i := range records {
		records[i].TWR = (records[i].PortfolioValue/base - 1) * 100
	}
}

// annualizedReturn converts a cumulative percentage return over a span into
// an annualized percentage rate. Used as the IRR substitute when the solver
// does not converge. Spans shorter than a day are treated as one day.
func annualizedReturn(totalReturnPct float64, from, to time.Time) float64 {
	days := to.Sub(from).Hours() / 24.0
	if days < 1 {
		days = 1
	}
	growth := 1 + totalReturnPct/100
	if growth <= 0 {
		return -100
	}
	return (math.Pow(growth, daysPerYear/days) - 1) * 100
}
