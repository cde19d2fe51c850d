// Package server exposes the Scoop HTTP surface: the inventory and catalog
// JSON API, a one-shot voice parse endpoint for typed input, and the
// websocket voice-entry session stream.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/LBKdotdev/the-scoop/internal/catalog"
	"github.com/LBKdotdev/the-scoop/internal/inventory"
	"github.com/LBKdotdev/the-scoop/internal/observe"
	"github.com/LBKdotdev/the-scoop/internal/voice/session"
)

// Server holds the handler dependencies. Construct with [New] and mount via
// [Server.Routes].
type Server struct {
	catalog   catalog.Store
	inventory inventory.Store
	booster   session.Booster
	metrics   *observe.Metrics
	logger    *slog.Logger
}

// Option is a functional option for [New].
type Option func(*Server)

// WithBooster enables LLM secondary interpretation for voice sessions.
func WithBooster(b session.Booster) Option {
	return func(s *Server) { s.booster = b }
}

// WithMetrics sets the metrics instance. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a Server over the given stores.
func New(cat catalog.Store, inv inventory.Store, opts ...Option) *Server {
	s := &Server{
		catalog:   cat,
		inventory: inv,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Routes registers all API routes on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/flavors", s.handleListFlavors)
	mux.HandleFunc("POST /api/flavors", s.handleCreateFlavor)
	mux.HandleFunc("PUT /api/flavors/{id}/active", s.handleSetFlavorActive)

	mux.HandleFunc("POST /api/counts", s.handleSubmitCounts)
	mux.HandleFunc("GET /api/counts/history", s.handleCountHistory)

	mux.HandleFunc("POST /api/production", s.handleLogProduction)
	mux.HandleFunc("GET /api/production", s.handleListProduction)
	mux.HandleFunc("DELETE /api/production/{id}", s.handleDeleteProduction)

	mux.HandleFunc("GET /api/par-levels", s.handleParLevels)
	mux.HandleFunc("PUT /api/par-levels", s.handleSetParLevel)

	mux.HandleFunc("POST /api/voice/parse", s.handleVoiceParse)
	mux.HandleFunc("GET /api/voice/session", s.handleVoiceSession)
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps store errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, inventory.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

// pathID parses the {id} path value, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

// queryDays parses the ?days query parameter with a default of 30.
func queryDays(r *http.Request) int {
	if v := r.URL.Query().Get("days"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			return days
		}
	}
	return 30
}

// decodeBody decodes a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}
