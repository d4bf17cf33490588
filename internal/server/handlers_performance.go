package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/foliotrack/foliotrack/internal/models"
)

// parseSeriesOptions reads performance request options from a JSON body
// (POST) or query parameters (GET).
func parseSeriesOptions(w http.ResponseWriter, r *http.Request) (models.SeriesOptions, bool) {
	var opts models.SeriesOptions

	if r.Method == http.MethodPost {
		if !DecodeJSON(w, r, &opts) {
			return opts, false
		}
		return opts, true
	}

	q := r.URL.Query()
	opts.Lens = models.Lens(q.Get("lens"))
	if values := q.Get("values"); values != "" {
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				opts.SelectedValues = append(opts.SelectedValues, v)
			}
		}
	}
	opts.Aggregate, _ = strconv.ParseBool(q.Get("aggregate"))
	opts.Period = q.Get("period")
	opts.Granularity = q.Get("granularity")
	if benchmarks := q.Get("benchmarks"); benchmarks != "" {
		for _, b := range strings.Split(benchmarks, ",") {
			if b = strings.TrimSpace(b); b != "" {
				opts.Benchmarks = append(opts.Benchmarks, b)
			}
		}
	}
	opts.IncludeExternalFunding, _ = strconv.ParseBool(q.Get("include_external_funding"))

	for param, dest := range map[string]*time.Time{
		"start_date": &opts.StartDate,
		"end_date":   &opts.EndDate,
	} {
		if raw := q.Get(param); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "Invalid "+param+": expected YYYY-MM-DD")
				return opts, false
			}
			*dest = parsed
		}
	}

	return opts, true
}

// handleSeries computes the performance report for the requested lens and
// window.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	opts, ok := parseSeriesOptions(w, r)
	if !ok {
		return
	}

	report, err := s.app.Performance.Series(r.Context(), userID, opts)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// handleSnapshot reconstructs the whole-portfolio valuation at a date.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var asOf time.Time
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid as_of: expected YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	state, err := s.app.Performance.Snapshot(r.Context(), userID, asOf)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, state)
}

// handleChart renders the performance series as a PNG.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	opts, ok := parseSeriesOptions(w, r)
	if !ok {
		return
	}

	png, err := s.app.Performance.Chart(r.Context(), userID, opts)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
