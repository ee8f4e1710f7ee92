package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aristath/tradeadvisor/internal/domain"
	"github.com/aristath/tradeadvisor/internal/modules/advisor"
)

// scanResponse is the JSON form of an advisor.Advice
type scanResponse struct {
	AssetClass domain.AssetClass    `json:"asset_class"`
	Positions  []domain.Position    `json:"positions"`
	Signals    []advisor.Evaluation `json:"signals"`
	Failures   map[string]string    `json:"failures"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "tradeadvisor",
		"journal": s.journal != nil,
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleScan handles GET /api/signals?class=
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	class, ok := s.parseClass(w, r)
	if !ok {
		return
	}

	advice, positions, err := s.advisor.Scan(r.Context(), class)
	if err != nil {
		s.log.Error().Err(err).Str("class", class.String()).Msg("Failed to scan holdings")
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := scanResponse{
		AssetClass: class,
		Positions:  positions,
		Signals:    make([]advisor.Evaluation, 0, len(advice.Signals)),
		Failures:   make(map[string]string, len(advice.Failures)),
	}
	for _, ticker := range advice.Tickers {
		if ev, ok := advice.Signal(ticker); ok {
			resp.Signals = append(resp.Signals, ev)
		}
	}
	for ticker, ferr := range advice.Failures {
		resp.Failures[ticker] = ferr.Error()
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleSignal handles GET /api/signals/{ticker}?class=
func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	class, ok := s.parseClass(w, r)
	if !ok {
		return
	}
	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))

	ev, err := s.advisor.EvaluateTicker(r.Context(), ticker, class)
	if err != nil {
		var dataErr *domain.DataError
		if errors.As(err, &dataErr) {
			s.writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, ev)
}

// handleListRuns handles GET /api/journal/runs?limit=
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.parseLimit(w, r)
	if !ok {
		return
	}

	runs, err := s.journal.ListRuns(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list runs")
		s.writeError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	s.writeJSON(w, http.StatusOK, runs)
}

// handleListOrders handles GET /api/journal/runs/{id}/orders
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.journal.ListOrders(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list orders")
		s.writeError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	s.writeJSON(w, http.StatusOK, orders)
}

// handleListNotices handles GET /api/journal/runs/{id}/notices
func (s *Server) handleListNotices(w http.ResponseWriter, r *http.Request) {
	notices, err := s.journal.ListNotices(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list notices")
		s.writeError(w, http.StatusInternalServerError, "Failed to list notices")
		return
	}

	s.writeJSON(w, http.StatusOK, notices)
}

// handleListSignals handles GET /api/journal/signals?ticker=&limit=
func (s *Server) handleListSignals(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.parseLimit(w, r)
	if !ok {
		return
	}
	ticker := strings.ToUpper(r.URL.Query().Get("ticker"))

	signals, err := s.journal.ListSignals(r.Context(), ticker, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list signals")
		s.writeError(w, http.StatusInternalServerError, "Failed to list signals")
		return
	}

	s.writeJSON(w, http.StatusOK, signals)
}

func (s *Server) parseClass(w http.ResponseWriter, r *http.Request) (domain.AssetClass, bool) {
	class, err := domain.ParseAssetClass(r.URL.Query().Get("class"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return class, true
}

func (s *Server) parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return 0, false
	}
	return limit, true
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
