package performance

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/foliotrack/foliotrack/internal/models"
)

// groupPalette cycles through line colors for group series.
var groupPalette = []string{
	"2563eb", // blue-600
	"16a34a", // green-600
	"dc2626", // red-600
	"9333ea", // purple-600
	"ea580c", // orange-600
	"0891b2", // cyan-600
}

// Chart renders the series for a request as a PNG line chart: one line of
// percentage return per group, with benchmarks overlaid as dashed gray
// lines.
func (s *Service) Chart(ctx context.Context, userID string, opts models.SeriesOptions) ([]byte, error) {
	report, err := s.Series(ctx, userID, opts)
	if err != nil {
		return nil, err
	}
	return renderReturnChart(report, opts)
}

// renderReturnChart draws the total-return series of a report.
func renderReturnChart(report *models.PerformanceReport, opts models.SeriesOptions) ([]byte, error) {
	keys := make([]string, 0, len(report.Series))
	for key := range report.Series {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var series []chart.Series
	colorIdx := 0
	for _, key := range keys {
		records := report.Series[key]
		if len(records) < 2 {
			continue
		}
		xValues := make([]time.Time, len(records))
		yValues := make([]float64, len(records))
		for i, rec := range records {
			xValues[i] = rec.Date
			yValues[i] = rec.TotalReturnPct
		}
		series = append(series, chart.TimeSeries{
			Name: key,
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex(groupPalette[colorIdx%len(groupPalette)]),
				StrokeWidth: 2.5,
			},
			XValues: xValues,
			YValues: yValues,
		})
		colorIdx++
	}

	benchmarkKeys := make([]string, 0, len(report.Benchmarks))
	for key := range report.Benchmarks {
		benchmarkKeys = append(benchmarkKeys, key)
	}
	sort.Strings(benchmarkKeys)

	for _, key := range benchmarkKeys {
		points := report.Benchmarks[key]
		if len(points) < 2 {
			continue
		}
		xValues := make([]time.Time, len(points))
		yValues := make([]float64, len(points))
		for i, p := range points {
			xValues[i] = p.Date
			yValues[i] = p.ReturnPct
		}
		series = append(series, chart.TimeSeries{
			Name: key,
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: xValues,
			YValues: yValues,
		})
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("need at least 2 data points to chart")
	}

	title := "Portfolio Return"
	if opts.Lens != "" && opts.Lens != models.LensTotal {
		title = fmt.Sprintf("Portfolio Return by %s", opts.Lens)
	}

	graph := chart.Chart{
		Title:  title,
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f%%", f)
				}
				return ""
			},
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
