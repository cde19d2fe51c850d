package server

import (
	"net/http"
	"time"

	"github.com/LBKdotdev/the-scoop/internal/inventory"
	"github.com/LBKdotdev/the-scoop/internal/voice"
	"github.com/LBKdotdev/the-scoop/internal/voice/session"
)

// --- Catalog ---

func (s *Server) handleListFlavors(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") == ""
	flavors, err := s.catalog.List(r.Context(), activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"flavors": flavors})
}

type createFlavorRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (s *Server) handleCreateFlavor(w http.ResponseWriter, r *http.Request) {
	var req createFlavorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name is required"})
		return
	}
	if req.Category == "" {
		req.Category = "classics"
	}

	flavor, err := s.catalog.Create(r.Context(), req.Name, req.Category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, flavor)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (s *Server) handleSetFlavorActive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req setActiveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.catalog.SetActive(r.Context(), id, req.Active); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": req.Active})
}

// --- Counts ---

type submitCountsRequest struct {
	Counts    []inventory.Count `json:"counts"`
	CountedBy string            `json:"counted_by"`
}

func (s *Server) handleSubmitCounts(w http.ResponseWriter, r *http.Request) {
	var req submitCountsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Counts) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "counts is empty"})
		return
	}

	now := time.Now()
	for i := range req.Counts {
		if req.Counts[i].CountedBy == "" {
			req.Counts[i].CountedBy = req.CountedBy
		}
		if req.Counts[i].CountedAt.IsZero() {
			req.Counts[i].CountedAt = now
		}
		if err := inventory.ValidateCount(req.Counts[i]); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	if err := s.inventory.SubmitCounts(r.Context(), req.Counts); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"submitted": len(req.Counts)})
}

func (s *Server) handleCountHistory(w http.ResponseWriter, r *http.Request) {
	counts, err := s.inventory.CountHistory(r.Context(), queryDays(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"counts": counts})
}

// --- Production ---

func (s *Server) handleLogProduction(w http.ResponseWriter, r *http.Request) {
	var entry inventory.ProductionEntry
	if !decodeBody(w, r, &entry) {
		return
	}
	if err := inventory.ValidateProduction(entry); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	id, err := s.inventory.LogProduction(r.Context(), entry)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) handleListProduction(w http.ResponseWriter, r *http.Request) {
	includeDeleted := r.URL.Query().Get("include_deleted") != ""
	entries, err := s.inventory.ListProduction(r.Context(), queryDays(r), includeDeleted)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"production": entries})
}

func (s *Server) handleDeleteProduction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deletedBy := r.URL.Query().Get("deleted_by")
	if err := s.inventory.DeleteProduction(r.Context(), id, deletedBy); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// --- Par levels ---

func (s *Server) handleParLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := s.inventory.ParLevels(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"par_levels": levels})
}

func (s *Server) handleSetParLevel(w http.ResponseWriter, r *http.Request) {
	var level inventory.ParLevel
	if !decodeBody(w, r, &level) {
		return
	}
	if err := s.inventory.SetParLevel(r.Context(), level); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, level)
}

// --- One-shot voice parse ---

type voiceParseRequest struct {
	Transcript string `json:"transcript"`
}

type voiceParseResponse struct {
	Type        string       `json:"type"`
	Result      voice.Result `json:"result"`
	Route       string       `json:"route"`
	Suggestions []string     `json:"suggestions,omitempty"`
}

// handleVoiceParse parses one typed transcript without session state. The
// route field tells the client what a live session would have done with the
// same confidence.
func (s *Server) handleVoiceParse(w http.ResponseWriter, r *http.Request) {
	var req voiceParseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Transcript == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "transcript is required"})
		return
	}

	flavors, err := s.catalog.List(r.Context(), true)
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	result := voice.NewParser(flavors).Parse(req.Transcript)
	s.metrics.ParseDuration.Record(r.Context(), time.Since(start).Seconds())

	resp := voiceParseResponse{Type: "parse_result", Result: result}
	switch {
	case result.Success && result.Confidence > session.AutoApplyThreshold:
		resp.Route = "auto"
	case result.Success && result.Confidence > session.ConfirmThreshold:
		resp.Route = "confirm"
	default:
		resp.Route = "rejected"
		resp.Suggestions = voice.Suggest(req.Transcript, flavors, 3)
	}
	s.metrics.RecordParseOutcome(r.Context(), resp.Route)

	writeJSON(w, http.StatusOK, resp)
}
