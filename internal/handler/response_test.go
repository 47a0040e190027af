package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/freeeve/veche/internal/model"
	"github.com/freeeve/veche/internal/repository"
	"github.com/freeeve/veche/internal/service"
	"github.com/freeeve/veche/pkg/veche"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, model.Match{ID: "m1", Name: "novgorod", Status: model.StatusWaiting, Seed: 99})

	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type=application/json, got %s", ct)
	}
	var result map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result["id"] != "m1" || result["status"] != "waiting" {
		t.Errorf("unexpected body: %v", result)
	}
	if _, ok := result["seed"]; ok {
		t.Error("the match seed must not be exposed")
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusBadRequest, "name is required")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	var result map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result["error"] != "name is required" {
		t.Errorf("expected error=name is required, got %s", result["error"])
	}
}

func TestDecodeJSONAction(t *testing.T) {
	body := `{"type":"VOTE_ATTACK","vote":true}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var a veche.Action
	if err := decodeJSON(req, &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.Type != veche.ActionVoteAttack || a.Vote == nil || !*a.Vote {
		t.Errorf("unexpected action %+v", a)
	}
}

func TestDecodeJSONRejectsBadBodies(t *testing.T) {
	for _, body := range []string{"", "not json"} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var a veche.Action
		if err := decodeJSON(req, &a); err == nil {
			t.Errorf("%q: expected error", body)
		}
	}
}

func TestWriteServiceError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"action error", &veche.ActionError{Code: veche.CodeTurnViolation, Message: "not yours"}, http.StatusUnprocessableEntity},
		{"wrapped action error", fmt.Errorf("replay seq 3: %w", &veche.ActionError{Code: veche.CodeUnknownAction}), http.StatusUnprocessableEntity},
		{"match not found", service.ErrMatchNotFound, http.StatusNotFound},
		{"state missing", service.ErrStateMissing, http.StatusNotFound},
		{"not in match", service.ErrNotInMatch, http.StatusForbidden},
		{"full", service.ErrMatchFull, http.StatusConflict},
		{"not waiting", service.ErrMatchNotWaiting, http.StatusConflict},
		{"not active", service.ErrMatchNotActive, http.StatusConflict},
		{"already joined", service.ErrAlreadyJoined, http.StatusConflict},
		{"store conflict", fmt.Errorf("append action: %w", repository.ErrConflict), http.StatusConflict},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tc.err)
			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestWriteServiceErrorBodies(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, &veche.ActionError{Code: veche.CodeInsufficientFunds, Message: "need 2, have 1"})
	var rejected map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &rejected); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if rejected["code"] != string(veche.CodeInsufficientFunds) || rejected["error"] != "need 2, have 1" {
		t.Errorf("unexpected rejection body %v", rejected)
	}

	rec = httptest.NewRecorder()
	writeServiceError(rec, errors.New("pq: password authentication failed"))
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("internal errors must not leak details: %s", rec.Body.String())
	}
}
