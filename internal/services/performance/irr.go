package performance

import (
	"math"
	"sort"
	"time"
)

const (
	maxNewtonIterations    = 1000
	newtonTolerance        = 1e-8
	newtonRateFloor        = -0.99
	newtonRateCeiling      = 50.0
	maxBisectionIterations = 200
	bisectionRateFloor     = -0.99
	bisectionRateCeiling   = 20.0
	daysPerYear            = 365.25
)

// netFlowsByDate merges same-date flows into a single net flow and returns
// them in ascending date order.
func netFlowsByDate(flows []CashFlow) []CashFlow {
	byDate := make(map[time.Time]float64, len(flows))
	for _, f := range flows {
		day := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, time.UTC)
		byDate[day] += f.Amount
	}

	netted := make([]CashFlow, 0, len(byDate))
	for day, amount := range byDate {
		netted = append(netted, CashFlow{Date: day, Amount: amount})
	}
	sort.Slice(netted, func(i, j int) bool {
		return netted[i].Date.Before(netted[j].Date)
	})
	return netted
}

// yearFractions converts flow dates to year offsets from the first flow
// using an average year of 365.25 days.
func yearFractions(flows []CashFlow) []float64 {
	years := make([]float64, len(flows))
	t0 := flows[0].Date
	for i, f := range flows {
		years[i] = f.Date.Sub(t0).Hours() / 24.0 / daysPerYear
	}
	return years
}

func npv(rate float64, flows []CashFlow, years []float64) float64 {
	var total float64
	for i, f := range flows {
		total += f.Amount / math.Pow(1+rate, years[i])
	}
	return total
}

func npvDerivative(rate float64, flows []CashFlow, years []float64) float64 {
	var total float64
	for i, f := range flows {
		if years[i] == 0 {
			continue
		}
		total -= years[i] * f.Amount / math.Pow(1+rate, years[i]+1)
	}
	return total
}

// SolveIRR computes the annualized internal rate of return for an irregular
// dated cash-flow series. Same-date flows are netted first. Newton-Raphson
// runs from a 10% guess; if it diverges, stalls, or escapes the valid rate
// range, a bisection fallback scans for a bracketing sign change. Returns
// NaN when flows cannot determine a rate (fewer than two dated flows, no
// sign change, or no convergence). NaN here is a signal, not an error.
func SolveIRR(flows []CashFlow) float64 {
	netted := netFlowsByDate(flows)
	if len(netted) < 2 {
		return math.NaN()
	}

	hasPositive, hasNegative := false, false
	for _, f := range netted {
		if f.Amount > 0 {
			hasPositive = true
		}
		if f.Amount < 0 {
			hasNegative = true
		}
	}
	if !hasPositive || !hasNegative {
		return math.NaN()
	}

	years := yearFractions(netted)

	rate := 0.1
	for i := 0; i < maxNewtonIterations; i++ {
		value := npv(rate, netted, years)
		if math.Abs(value) < newtonTolerance {
			return rate
		}
		derivative := npvDerivative(rate, netted, years)
		if derivative == 0 || math.IsNaN(derivative) || math.IsInf(derivative, 0) {
			break
		}
		next := rate - value/derivative
		if math.IsNaN(next) || next <= newtonRateFloor || next >= newtonRateCeiling {
			break
		}
		rate = next
	}

	return bisectIRR(netted, years)
}

// bisectIRR searches [-0.99, 20] for a root by interval halving. The bracket
// is found by scanning fixed steps for a sign change in NPV.
func bisectIRR(flows []CashFlow, years []float64) float64 {
	low, high := bisectionRateFloor, bisectionRateCeiling

	lowVal := npv(low, flows, years)
	highVal := npv(high, flows, years)
	if lowVal*highVal > 0 {
		found := false
		const steps = 200
		step := (high - low) / steps
		prev := lowVal
		for r := low + step; r <= high; r += step {
			cur := npv(r, flows, years)
			if prev*cur <= 0 {
				low, high = r-step, r
				lowVal = prev
				found = true
				break
			}
			prev = cur
		}
		if !found {
			return math.NaN()
		}
	}

	for i := 0; i < maxBisectionIterations; i++ {
		mid := (low + high) / 2
		midVal := npv(mid, flows, years)
		if math.Abs(midVal) < newtonTolerance {
			return mid
		}
		if lowVal*midVal < 0 {
			high = mid
		} else {
			low = mid
			lowVal = midVal
		}
	}

	mid := (low + high) / 2
	if math.Abs(npv(mid, flows, years)) < 1e-4 {
		return mid
	}
	return math.NaN()
}
