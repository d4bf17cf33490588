package server

import (
	"net/http"

	"github.com/foliotrack/foliotrack/internal/common"
)

// registerRoutes attaches all API routes to the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/config", s.handleConfig)

	// Performance analytics
	mux.HandleFunc("/api/performance/series", s.handleSeries)
	mux.HandleFunc("/api/performance/snapshot", s.handleSnapshot)
	mux.HandleFunc("/api/performance/chart", s.handleChart)

	// Ledger
	mux.HandleFunc("/api/transactions", s.handleTransactions)
	mux.HandleFunc("/api/transactions/", s.handleTransactionByID)
	mux.HandleFunc("/api/lots", s.handleLots)
	mux.HandleFunc("/api/assets", s.handleAssets)
	mux.HandleFunc("/api/accounts", s.handleAccounts)
	mux.HandleFunc("/api/subportfolios", s.handleSubPortfolios)
}

// requireUser resolves the authenticated user ID or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := common.ResolveUserID(r.Context())
	if userID == "" {
		WriteError(w, http.StatusUnauthorized, "No authenticated user")
		return "", false
	}
	return userID, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": common.GetVersion(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleConfig returns the non-secret runtime configuration.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	cfg := s.app.Config
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"environment": cfg.Environment,
		"server": map[string]interface{}{
			"host": cfg.Server.Host,
			"port": cfg.Server.Port,
		},
		"storage": map[string]string{
			"address":   cfg.Storage.Address,
			"namespace": cfg.Storage.Namespace,
			"database":  cfg.Storage.Database,
		},
		"logging": map[string]string{
			"level":  cfg.Logging.Level,
			"format": cfg.Logging.Format,
		},
	})
}
