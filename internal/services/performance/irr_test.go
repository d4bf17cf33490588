package performance

import (
	"math"
	"testing"
	"time"
)

func approxEqual(got, want, tolerance float64) bool {
	return math.Abs(got-want) <= tolerance
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSolveIRR_RoundTrip(t *testing.T) {
	// Deposit D at t0, terminal value D*(1+r)^T after T years: the solver
	// must recover r.
	cases := []struct {
		name  string
		rate  float64
		years int
	}{
		{"ten pct one year", 0.10, 1},
		{"twenty pct three years", 0.20, 3},
		{"negative five pct two years", -0.05, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			const principal = 10000.0
			start := date(2020, 1, 1)
			end := start.AddDate(tc.years, 0, 0)
			terminal := principal * math.Pow(1+tc.rate, end.Sub(start).Hours()/24/daysPerYear)

			flows := []CashFlow{
				{Date: start, Amount: -principal},
				{Date: end, Amount: terminal},
			}

			got := SolveIRR(flows)
			if !approxEqual(got, tc.rate, 1e-6) {
				t.Errorf("SolveIRR = %.8f, want %.8f", got, tc.rate)
			}
		})
	}
}

func TestSolveIRR_IrregularFlows(t *testing.T) {
	// Two investments at different times, one terminal value. Verify by
	// checking NPV at the returned rate is ~0.
	flows := []CashFlow{
		{Date: date(2023, 1, 1), Amount: -10000},
		{Date: date(2023, 7, 1), Amount: -5000},
		{Date: date(2024, 1, 1), Amount: 16500},
	}

	rate := SolveIRR(flows)
	if math.IsNaN(rate) {
		t.Fatal("SolveIRR returned NaN for solvable flows")
	}

	netted := netFlowsByDate(flows)
	years := yearFractions(netted)
	if residual := npv(rate, netted, years); !approxEqual(residual, 0, 1e-4) {
		t.Errorf("NPV at solved rate = %.6f, want ~0", residual)
	}
}

func TestSolveIRR_SameDateNetting(t *testing.T) {
	// A deposit and partial withdrawal on the same day net to one flow;
	// the result must match passing the net flow directly.
	start := date(2024, 1, 1)
	end := date(2025, 1, 1)

	split := SolveIRR([]CashFlow{
		{Date: start, Amount: -10000},
		{Date: start, Amount: 2000},
		{Date: end, Amount: 8800},
	})
	net := SolveIRR([]CashFlow{
		{Date: start, Amount: -8000},
		{Date: end, Amount: 8800},
	})

	if math.IsNaN(split) || !approxEqual(split, net, 1e-8) {
		t.Errorf("split-flow IRR = %.8f, net-flow IRR = %.8f, want equal", split, net)
	}
}

func TestSolveIRR_NoSignChange(t *testing.T) {
	flows := []CashFlow{
		{Date: date(2024, 1, 1), Amount: 1000},
		{Date: date(2025, 1, 1), Amount: 1200},
	}
	if got := SolveIRR(flows); !math.IsNaN(got) {
		t.Errorf("SolveIRR = %v, want NaN for flows without a sign change", got)
	}
}

func TestSolveIRR_TooFewFlows(t *testing.T) {
	if got := SolveIRR(nil); !math.IsNaN(got) {
		t.Errorf("SolveIRR(nil) = %v, want NaN", got)
	}
	single := []CashFlow{{Date: date(2024, 1, 1), Amount: -1000}}
	if got := SolveIRR(single); !math.IsNaN(got) {
		t.Errorf("SolveIRR(single flow) = %v, want NaN", got)
	}
}

func TestSolveIRR_TotalLoss(t *testing.T) {
	// Near-total loss pushes the root close to the -99% floor; the
	// bisection fallback has to find it.
	flows := []CashFlow{
		{Date: date(2023, 1, 1), Amount: -10000},
		{Date: date(2024, 1, 1), Amount: 200},
	}
	rate := SolveIRR(flows)
	if math.IsNaN(rate) {
		t.Fatal("SolveIRR returned NaN for a near-total loss")
	}
	if !approxEqual(rate, -0.98, 0.01) {
		t.Errorf("SolveIRR = %.4f, want ~-0.98", rate)
	}
}

func TestAnnualizedReturn(t *testing.T) {
	// 5% over 6 months annualizes to roughly 10.25%.
	start := date(2024, 1, 1)
	end := date(2024, 7, 1)
	got := annualizedReturn(5.0, start, end)
	if got < 9.5 || got > 11 {
		t.Errorf("annualizedReturn = %.2f%%, want ~10.25%%", got)
	}

	// A full year passes through unchanged (within day-count noise).
	oneYear := annualizedReturn(10.0, date(2024, 1, 1), date(2025, 1, 1))
	if !approxEqual(oneYear, 10.0, 0.2) {
		t.Errorf("annualizedReturn over one year = %.2f%%, want ~10%%", oneYear)
	}
}
