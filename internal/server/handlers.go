package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"QuantDeck/internal/model"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"portfolio_loaded": s.runner.Portfolio() != nil,
		"cache_stale":      s.cache.Stale(),
	})
}

// handlePortfolioUpload accepts a broker CSV export, either as a multipart
// "file" field or as the raw request body.
func (s *Server) handlePortfolioUpload(w http.ResponseWriter, r *http.Request) {
	var reader io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "multipart upload needs a \"file\" field")
			return
		}
		defer file.Close()
		reader = file
	}

	p, err := s.runner.LoadPortfolio(reader)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"holdings": len(p.Holdings),
		"symbols":  p.Symbols(),
	})
}

func (s *Server) handlePortfolioGet(w http.ResponseWriter, r *http.Request) {
	p := s.runner.Portfolio()
	if p == nil {
		s.writeError(w, http.StatusNotFound, "no portfolio loaded")
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.runner.Portfolio() == nil {
		s.writeError(w, http.StatusBadRequest, "no portfolio loaded")
		return
	}
	report, err := s.runner.Refresh()
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// handleSignals evaluates the portfolio. With ?preset= every symbol uses
// that preset; without it each symbol uses its lock or the default.
func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	var preset model.Preset
	if name := r.URL.Query().Get("preset"); name != "" {
		p, ok := model.ParsePreset(name)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown preset "+name)
			return
		}
		preset = p
	}

	results, err := s.runner.Evaluate(preset)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleDiagnosis(w http.ResponseWriter, r *http.Request) {
	results, err := s.runner.Evaluate("")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	diagnoses := make([]model.Diagnosis, 0, len(results))
	for _, res := range results {
		diagnoses = append(diagnoses, res.Diagnosis)
	}
	s.writeJSON(w, http.StatusOK, diagnoses)
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"macro":      s.cache.Macro(),
		"last_fetch": s.cache.LastReport(),
		"stale":      s.cache.Stale(),
	})
}

func (s *Server) handleLocksList(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.locks.All())
}

func (s *Server) handleLockGet(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	preset, locked := s.runner.PresetFor(symbol)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"symbol": symbol,
		"preset": preset,
		"locked": locked,
	})
}

func (s *Server) handleLockPut(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	var body struct {
		Preset string `json:"preset"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.locks.Set(symbol, model.Preset(body.Preset)); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"symbol": symbol,
		"preset": body.Preset,
		"locked": true,
	})
}

func (s *Server) handleLockDelete(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if err := s.locks.Clear(symbol); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"symbol": symbol,
		"locked": false,
	})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if s.runner.Portfolio() == nil {
		s.writeError(w, http.StatusBadRequest, "no portfolio loaded")
		return
	}
	report, err := s.runner.Scan(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
