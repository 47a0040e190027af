package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func TestGoogleLoginURL(t *testing.T) {
	p := NewGoogleOAuth("client-1", "secret", "http://localhost/cb")
	u := p.LoginURL("state-xyz")
	if !strings.Contains(u, "client_id=client-1") || !strings.Contains(u, "state=state-xyz") {
		t.Errorf("unexpected login url %s", u)
	}
	if !p.Configured() {
		t.Error("provider with credentials should be configured")
	}
	if NewGoogleOAuth("", "", "").Configured() {
		t.Error("provider without credentials should not be configured")
	}
	if p.Name() != "google" {
		t.Errorf("expected google, got %s", p.Name())
	}
}

func TestExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "at-1",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		case "/userinfo":
			if r.Header.Get("Authorization") != "Bearer at-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(GoogleUserInfo{ID: "g-7", Name: "Marfa", Email: "marfa@example.com"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := &OAuthProvider{
		name:        "google",
		userInfoURL: srv.URL + "/userinfo",
		config: &oauth2.Config{
			ClientID:     "c",
			ClientSecret: "s",
			Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
		},
	}

	info, err := p.Exchange(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if info.ID != "g-7" || info.Name != "Marfa" {
		t.Errorf("unexpected user info %+v", info)
	}
}

func TestExchangeUserInfoError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"at","token_type":"Bearer"}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	p := &OAuthProvider{
		name:        "google",
		userInfoURL: srv.URL + "/userinfo",
		config: &oauth2.Config{
			ClientID:     "c",
			ClientSecret: "s",
			Endpoint:     oauth2.Endpoint{TokenURL: srv.URL + "/token"},
		},
	}
	if _, err := p.Exchange(context.Background(), "code"); err == nil {
		t.Error("expected error for a failed userinfo call")
	}
}
