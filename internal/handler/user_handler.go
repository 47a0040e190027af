package handler

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/freeeve/veche/internal/auth"
	"github.com/freeeve/veche/internal/model"
	"github.com/freeeve/veche/internal/repository"
)

const maxDisplayName = 32

// MatchLister lists the matches a user takes part in.
type MatchLister interface {
	ListByUser(ctx context.Context, userID string) ([]model.Match, error)
}

// Profile is a user together with the matches they created or sit in.
type Profile struct {
	User    *model.User   `json:"user"`
	Waiting int           `json:"waiting"`
	Active  int           `json:"active"`
	Played  int           `json:"played"`
	Matches []model.Match `json:"matches"`
}

// UserHandler handles user profile endpoints.
type UserHandler struct {
	userRepo repository.UserRepository
	matches  MatchLister
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(userRepo repository.UserRepository, matches MatchLister) *UserHandler {
	return &UserHandler{userRepo: userRepo, matches: matches}
}

func (h *UserHandler) profile(ctx context.Context, userID string) (*Profile, error) {
	user, err := h.userRepo.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, err
	}
	matches, err := h.matches.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := &Profile{User: user, Matches: matches}
	if p.Matches == nil {
		p.Matches = []model.Match{}
	}
	for _, m := range matches {
		switch m.Status {
		case model.StatusWaiting:
			p.Waiting++
		case model.StatusActive:
			p.Active++
		case model.StatusFinished:
			p.Played++
		}
	}
	return p, nil
}

func (h *UserHandler) writeProfile(w http.ResponseWriter, r *http.Request, userID string, public bool) {
	p, err := h.profile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if public {
		u := *p.User
		u.ProviderID = ""
		p.User = &u
	}
	writeJSON(w, http.StatusOK, p)
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	h.writeProfile(w, r, auth.UserIDFromContext(r.Context()), false)
}

// GetUser handles GET /api/v1/users/{id}. Provider IDs stay private.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	h.writeProfile(w, r, r.PathValue("id"), true)
}

// UpdateMe handles PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		writeError(w, http.StatusBadRequest, "display_name is required")
		return
	}
	if utf8.RuneCountInString(name) > maxDisplayName {
		writeError(w, http.StatusBadRequest, "display_name is too long")
		return
	}

	if err := h.userRepo.UpdateDisplayName(r.Context(), userID, name); err != nil {
		writeServiceError(w, err)
		return
	}
	user, err := h.userRepo.FindByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
