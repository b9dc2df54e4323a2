package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/opportunity-analyzer/internal/analysis"
	"github.com/sells-group/opportunity-analyzer/pkg/geocode"
)

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) handleGeocode() http.HandlerFunc {
	type res struct {
		ZipCode   string  `json:"zip_code"`
		Resolved  bool    `json:"resolved"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Source    string  `json:"source"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		zip := geocode.ZipCode(chi.URLParam(r, "zip"))
		if !zip.Valid() {
			writeError(w, analysis.ErrInvalidZipCode)
			return
		}

		result := s.resolver.Resolve(r.Context(), zip)
		writeJSON(w, http.StatusOK, res{
			ZipCode:   string(zip),
			Resolved:  result.Resolved,
			Latitude:  result.Latitude,
			Longitude: result.Longitude,
			Source:    result.Source,
		})
	}
}

func (s *Server) handleAnalyze() http.HandlerFunc {
	type req struct {
		ZipCode string `json:"zip_code"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var body req
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
			writeError(w, errInvalidBody)
			return
		}

		report, err := s.analyzer.Analyze(r.Context(), body.ZipCode)
		if err != nil {
			zap.L().Info("server: analysis failed", zap.String("zip", body.ZipCode), zap.Error(err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) handleDashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, s.analyzer.Status())
	}
}

func (s *Server) handleMap() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		data, err := s.view.Current().GeoJSON()
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func (s *Server) handleStats() http.HandlerFunc {
	type res struct {
		Geocode       geocode.Stats `json:"geocode"`
		StaleDiscards int64         `json:"stale_discards"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, res{
			Geocode:       s.resolver.Stats(),
			StaleDiscards: s.view.Stale(),
		})
	}
}
