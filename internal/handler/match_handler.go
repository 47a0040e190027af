package handler

import (
	"net/http"

	"github.com/freeeve/veche/internal/auth"
	"github.com/freeeve/veche/internal/logger"
	"github.com/freeeve/veche/internal/model"
	"github.com/freeeve/veche/internal/service"
	"github.com/freeeve/veche/pkg/veche"
)

// MatchHandler handles match lifecycle and game-play endpoints.
type MatchHandler struct {
	svc *service.MatchService
	// deterministic is the event mode for matches that do not ask for one.
	deterministic bool
}

// NewMatchHandler creates a MatchHandler.
func NewMatchHandler(svc *service.MatchService, deterministic bool) *MatchHandler {
	return &MatchHandler{svc: svc, deterministic: deterministic}
}

// CreateMatch handles POST /api/v1/matches
func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var req struct {
		Name          string `json:"name"`
		FillBots      bool   `json:"fill_bots,omitempty"`
		Deterministic *bool  `json:"deterministic,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	deterministic := h.deterministic
	if req.Deterministic != nil {
		deterministic = *req.Deterministic
	}

	m, err := h.svc.CreateMatch(r.Context(), req.Name, userID, req.FillBots, deterministic)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// ListMatches handles GET /api/v1/matches?filter=open|mine
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	var (
		matches []model.Match
		err     error
	)
	switch r.URL.Query().Get("filter") {
	case "", "open":
		matches, err = h.svc.ListOpen(r.Context())
	case "mine":
		matches, err = h.svc.ListByUser(r.Context(), auth.UserIDFromContext(r.Context()))
	default:
		writeError(w, http.StatusBadRequest, "filter must be open or mine")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if matches == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// GetMatch handles GET /api/v1/matches/{id}
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.GetMatch(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// JoinMatch handles POST /api/v1/matches/{id}/join
func (h *MatchHandler) JoinMatch(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	m, err := h.svc.JoinMatch(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// GetState handles GET /api/v1/matches/{id}/state
func (h *MatchHandler) GetState(w http.ResponseWriter, r *http.Request) {
	seq, gs, err := h.svc.State(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"seq": seq, "state": gs})
}

// SubmitAction handles POST /api/v1/matches/{id}/actions
func (h *MatchHandler) SubmitAction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var a veche.Action
	if err := decodeJSON(r, &a); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if a.Type == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}

	matchID := r.PathValue("id")
	res, gs, err := h.svc.ApplyAction(r.Context(), matchID, userID, a)
	if err != nil {
		l := logger.ForMatch(r.Context(), matchID)
		l.Debug().Err(err).Str("userId", userID).Str("action", string(a.Type)).Msg("Action not applied")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": res, "state": gs})
}

// ListActions handles GET /api/v1/matches/{id}/actions
func (h *MatchHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.Journal(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if recs == nil {
		recs = []model.ActionRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// Replay handles GET /api/v1/matches/{id}/replay
func (h *MatchHandler) Replay(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Replay(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Targets handles GET /api/v1/matches/{id}/targets
func (h *MatchHandler) Targets(w http.ResponseWriter, r *http.Request) {
	targets, err := h.svc.Targets(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, targets)
}
