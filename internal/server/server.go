// Package server exposes the analysis orchestrator over HTTP: job
// submission, SSE and WebSocket log streaming, result polling, and map
// artifact endpoints.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/analysis"
	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/config"
	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/imagery"
	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/mapstore"
	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/session"
)

// Server wires the session store, job runner, imagery provider, and map
// store behind the HTTP API.
type Server struct {
	cfg      config.Config
	store    *session.Store
	runner   *analysis.Runner
	provider imagery.Provider
	maps     *mapstore.Store
}

// New creates a server.
func New(cfg config.Config, store *session.Store, runner *analysis.Runner, provider imagery.Provider, maps *mapstore.Store) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		runner:   runner,
		provider: provider,
		maps:     maps,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(corsMiddleware)

	r.Get("/api/health", s.handleHealth)
	r.Post("/api/analyze", s.handleAnalyze)
	r.Get("/api/logs/{sessionID}", s.handleLogStream)
	r.Get("/ws/logs/{sessionID}", s.handleLogSocket)
	r.Get("/api/analysis-result/{sessionID}", s.handleResult)
	r.Delete("/api/analysis/{sessionID}", s.handleCancel)
	r.Get("/api/parameters", s.handleParameters)
	r.Get("/api/maps", s.handleListMaps)
	r.Get("/api/download-map/{filename}", s.handleDownloadMap)
	r.Delete("/api/delete-map/{filename}", s.handleDeleteMap)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorFrame{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Urban Heat Island Analyzer API is running",
	})
}

func (s *Server) handleParameters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Defaults)
}

// analyzeRequest uses pointers so missing fields are distinguishable from
// legitimate zero values.
type analyzeRequest struct {
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	StartDate    *string  `json:"startDate"`
	EndDate      *string  `json:"endDate"`
	CloudCover   *float64 `json:"cloudCover"`
	HotThreshold *float64 `json:"hotThreshold"`
	VegThreshold *float64 `json:"vegThreshold"`
	Dataset      *string  `json:"dataset"`
}

var requiredFields = []string{"latitude", "longitude", "startDate", "endDate"}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !s.provider.Ready() {
		writeError(w, http.StatusServiceUnavailable, "analysis backend not initialized, please try again later")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if req.Latitude == nil || req.Longitude == nil || req.StartDate == nil || req.EndDate == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":    "missing required fields",
			"required": requiredFields,
		})
		return
	}

	params := analysis.Params{
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		StartDate:    *req.StartDate,
		EndDate:      *req.EndDate,
		CloudCover:   s.cfg.Defaults.CloudCover,
		HotThreshold: s.cfg.Defaults.HotThreshold,
		VegThreshold: s.cfg.Defaults.VegThreshold,
		Dataset:      s.cfg.Defaults.Dataset,
	}
	if req.CloudCover != nil {
		params.CloudCover = *req.CloudCover
	}
	if req.HotThreshold != nil {
		params.HotThreshold = *req.HotThreshold
	}
	if req.VegThreshold != nil {
		params.VegThreshold = *req.VegThreshold
	}
	if req.Dataset != nil {
		params.Dataset = *req.Dataset
	}

	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := s.store.Create()
	pipeline, compose := analysis.BuildPipeline(analysis.Deps{
		Provider: s.provider,
		MaxZones: s.cfg.MaxZones,
		Log:      sess.Log(),
		SaveMap:  s.maps.Save,
	}, params)
	s.runner.Start(sess.ID, pipeline, compose)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"sessionId": sess.ID,
		"message":   "Analysis started. Connect to /api/logs/" + sess.ID + " to stream logs.",
	})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	sess, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	status, result, errMsg := sess.Snapshot()
	switch status {
	case session.StatusCompleted:
		writeJSON(w, http.StatusOK, result)
	case session.StatusFailed:
		writeError(w, http.StatusInternalServerError, errMsg)
	default:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": string(status)})
	}
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	sess, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	sess.Cancel()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.maps.List())
}

func (s *Server) handleDownloadMap(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if !mapstore.ValidName(name) {
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	}

	path, ok := s.maps.Path(name)
	if !ok {
		writeError(w, http.StatusNotFound, "Map file not found")
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
	http.ServeFile(w, r, path)
}

func (s *Server) handleDeleteMap(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if err := s.maps.Delete(name); err != nil {
		if errors.Is(err, mapstore.ErrInvalidName) {
			writeError(w, http.StatusBadRequest, "Invalid filename")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Deleting an already-missing map still reports success.
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Map file deleted",
	})
}
