package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/freeeve/veche/internal/auth"
	"github.com/freeeve/veche/internal/repository"
	"github.com/freeeve/veche/internal/repository/sqlite"
	"github.com/freeeve/veche/internal/service"
	"github.com/freeeve/veche/pkg/veche"
)

type testServer struct {
	mux      *http.ServeMux
	users    repository.UserRepository
	jwtMgr   *auth.JWTManager
	matchSvc *service.MatchService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := sqlite.NewUserRepo(db)
	svc := service.NewMatchService(sqlite.NewMatchRepo(db), users, sqlite.NewJournalRepo(db), nil, nil)
	jwtMgr := auth.NewJWTManager("test-secret")
	mh := NewMatchHandler(svc, false)
	ah := NewAuthHandler(auth.NewGoogleOAuth("", "", ""), jwtMgr, users, true)
	uh := NewUserHandler(users, svc)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /matches", mh.CreateMatch)
	mux.HandleFunc("GET /matches", mh.ListMatches)
	mux.HandleFunc("GET /matches/{id}", mh.GetMatch)
	mux.HandleFunc("POST /matches/{id}/join", mh.JoinMatch)
	mux.HandleFunc("GET /matches/{id}/state", mh.GetState)
	mux.HandleFunc("POST /matches/{id}/actions", mh.SubmitAction)
	mux.HandleFunc("GET /matches/{id}/actions", mh.ListActions)
	mux.HandleFunc("GET /matches/{id}/replay", mh.Replay)
	mux.HandleFunc("GET /matches/{id}/targets", mh.Targets)
	mux.HandleFunc("GET /auth/google/login", ah.GoogleLogin)
	mux.HandleFunc("POST /auth/refresh", ah.RefreshToken)
	mux.HandleFunc("GET /auth/dev", ah.DevLogin)
	mux.HandleFunc("GET /users/me", uh.GetMe)
	mux.HandleFunc("PATCH /users/me", uh.UpdateMe)
	mux.HandleFunc("GET /users/{id}", uh.GetUser)

	return &testServer{mux: mux, users: users, jwtMgr: jwtMgr, matchSvc: svc}
}

func (ts *testServer) user(t *testing.T, name string) string {
	t.Helper()
	u, err := ts.users.Upsert(context.Background(), "dev", "dev-"+name, name, "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func (ts *testServer) do(t *testing.T, userID, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if userID != "" {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func (ts *testServer) createBotMatch(t *testing.T, userID string) string {
	t.Helper()
	rec := ts.do(t, userID, http.MethodPost, "/matches", `{"name":"novgorod","fill_bots":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create match: %d %s", rec.Code, rec.Body.String())
	}
	var m struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeBody(t, rec, &m)
	if m.Status != "active" {
		t.Fatalf("expected active match, got %s", m.Status)
	}
	return m.ID
}

func TestCreateMatchValidation(t *testing.T) {
	ts := newTestServer(t)
	u := ts.user(t, "alice")

	cases := []struct {
		name string
		body string
	}{
		{"bad json", "{"},
		{"missing name", `{"fill_bots":true}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := ts.do(t, u, http.MethodPost, "/matches", tc.body); rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestPlayThroughHTTP(t *testing.T) {
	ts := newTestServer(t)
	u := ts.user(t, "alice")
	id := ts.createBotMatch(t, u)
	base := "/matches/" + id

	rec := ts.do(t, u, http.MethodPost, base+"/actions", `{"type":"NEXT_PHASE"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("next phase: %d %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Result veche.Result    `json:"result"`
		State  veche.GameState `json:"state"`
	}
	decodeBody(t, rec, &out)
	if out.Result.Type != veche.ResultPhaseChanged || out.State.Phase != veche.PhaseConstruction {
		t.Errorf("unexpected result %+v", out.Result)
	}

	rec = ts.do(t, u, http.MethodPost, base+"/actions", `{"type":"BUY_EQUIPMENT","item":"armor"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("buy: %d %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, u, http.MethodPost, base+"/actions", `{"type":"BUY_EQUIPMENT","item":"weapons"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("second purchase: expected 422, got %d", rec.Code)
	}
	var rejected map[string]string
	decodeBody(t, rec, &rejected)
	if rejected["code"] != string(veche.CodeDuplicateAction) || rejected["error"] == "" {
		t.Errorf("unexpected rejection %v", rejected)
	}

	rec = ts.do(t, u, http.MethodGet, base+"/state", "")
	var st struct {
		Seq   int             `json:"seq"`
		State veche.GameState `json:"state"`
	}
	decodeBody(t, rec, &st)
	if st.Seq != 2 || st.State.Players[0].Armor != 1 {
		t.Errorf("unexpected state seq %d armor %d", st.Seq, st.State.Players[0].Armor)
	}

	rec = ts.do(t, u, http.MethodGet, base+"/actions", "")
	var recs []json.RawMessage
	decodeBody(t, rec, &recs)
	if len(recs) != 2 {
		t.Errorf("expected 2 journaled actions, got %d", len(recs))
	}

	rec = ts.do(t, u, http.MethodGet, base+"/replay", "")
	var report service.ReplayReport
	decodeBody(t, rec, &report)
	if !report.Match || report.Actions != 2 {
		t.Errorf("unexpected replay report %+v", report)
	}

	rec = ts.do(t, u, http.MethodGet, base+"/targets", "")
	var targets service.Targets
	decodeBody(t, rec, &targets)
	if len(targets.Attack) == 0 {
		t.Error("expected attack targets")
	}
}

func TestSubmitActionErrors(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.user(t, "alice")
	bob := ts.user(t, "bob")
	id := ts.createBotMatch(t, alice)

	cases := []struct {
		name   string
		userID string
		path   string
		body   string
		want   int
	}{
		{"bad body", alice, "/matches/" + id + "/actions", "nope", http.StatusBadRequest},
		{"missing type", alice, "/matches/" + id + "/actions", `{}`, http.StatusBadRequest},
		{"unknown match", alice, "/matches/missing/actions", `{"type":"NEXT_PHASE"}`, http.StatusNotFound},
		{"not seated", bob, "/matches/" + id + "/actions", `{"type":"NEXT_PHASE"}`, http.StatusForbidden},
		{"unknown action", alice, "/matches/" + id + "/actions", `{"type":"FLY"}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := ts.do(t, tc.userID, http.MethodPost, tc.path, tc.body); rec.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestJoinAndList(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.user(t, "alice")
	bob := ts.user(t, "bob")

	rec := ts.do(t, alice, http.MethodPost, "/matches", `{"name":"open table"}`)
	var m struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &m)

	rec = ts.do(t, bob, http.MethodGet, "/matches?filter=open", "")
	var open []struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &open)
	if len(open) != 1 || open[0].ID != m.ID {
		t.Errorf("expected the open match, got %v", open)
	}

	if rec := ts.do(t, alice, http.MethodPost, "/matches/"+m.ID+"/join", ""); rec.Code != http.StatusConflict {
		t.Errorf("rejoin: expected 409, got %d", rec.Code)
	}
	if rec := ts.do(t, bob, http.MethodPost, "/matches/"+m.ID+"/join", ""); rec.Code != http.StatusOK {
		t.Errorf("join: expected 200, got %d", rec.Code)
	}

	rec = ts.do(t, bob, http.MethodGet, "/matches?filter=mine", "")
	var mine []json.RawMessage
	decodeBody(t, rec, &mine)
	if len(mine) != 1 {
		t.Errorf("expected 1 match for bob, got %d", len(mine))
	}

	if rec := ts.do(t, bob, http.MethodGet, "/matches?filter=all", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad filter: expected 400, got %d", rec.Code)
	}
	if rec := ts.do(t, bob, http.MethodGet, "/matches/"+m.ID+"/state", ""); rec.Code != http.StatusNotFound {
		t.Errorf("state of waiting match: expected 404, got %d", rec.Code)
	}
}

func TestListMatchesEmpty(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, ts.user(t, "alice"), http.MethodGet, "/matches", "")
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected [], got %s", body)
	}
}

func TestGetMatchNotFound(t *testing.T) {
	ts := newTestServer(t)
	if rec := ts.do(t, ts.user(t, "alice"), http.MethodGet, "/matches/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUserProfile(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.user(t, "alice")
	ts.createBotMatch(t, alice)
	if rec := ts.do(t, alice, http.MethodPost, "/matches", `{"name":"pskov"}`); rec.Code != http.StatusCreated {
		t.Fatalf("create match: %d %s", rec.Code, rec.Body.String())
	}

	rec := ts.do(t, alice, http.MethodGet, "/users/me", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var me Profile
	decodeBody(t, rec, &me)
	if me.User == nil || me.User.DisplayName != "alice" || me.User.ProviderID != "dev-alice" {
		t.Errorf("unexpected user %+v", me.User)
	}
	if me.Active != 1 || me.Waiting != 1 || me.Played != 0 || len(me.Matches) != 2 {
		t.Errorf("unexpected match counts %d/%d/%d over %d matches", me.Waiting, me.Active, me.Played, len(me.Matches))
	}

	rec = ts.do(t, "", http.MethodGet, "/users/"+alice, "")
	var public Profile
	decodeBody(t, rec, &public)
	if rec.Code != http.StatusOK || public.User == nil || public.User.ProviderID != "" {
		t.Errorf("public profile should hide the provider id: %d %s", rec.Code, rec.Body.String())
	}

	if rec := ts.do(t, "", http.MethodGet, "/users/nobody", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateDisplayName(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.user(t, "alice")

	cases := []struct {
		body string
		want int
	}{
		{`{"display_name":"   "}`, http.StatusBadRequest},
		{`{"display_name":"` + strings.Repeat("я", maxDisplayName+1) + `"}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
		{`{"display_name":" Posadnik "}`, http.StatusOK},
	}
	for _, tc := range cases {
		if rec := ts.do(t, alice, http.MethodPatch, "/users/me", tc.body); rec.Code != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.body, tc.want, rec.Code)
		}
	}
	u, _ := ts.users.FindByID(context.Background(), alice)
	if u.DisplayName != "Posadnik" {
		t.Errorf("expected trimmed display name, got %q", u.DisplayName)
	}

	// Logging in again keeps the chosen name.
	if rec := ts.do(t, "", http.MethodGet, "/auth/dev?name=alice", ""); rec.Code != http.StatusOK {
		t.Fatalf("dev login: %d %s", rec.Code, rec.Body.String())
	}
	u, _ = ts.users.FindByID(context.Background(), alice)
	if u.DisplayName != "Posadnik" {
		t.Errorf("login overwrote the display name with %q", u.DisplayName)
	}
}

func TestRefreshToken(t *testing.T) {
	ts := newTestServer(t)
	pair, err := ts.jwtMgr.GenerateTokenPair("user-1")
	if err != nil {
		t.Fatal(err)
	}

	rec := ts.do(t, "", http.MethodPost, "/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, pair.RefreshToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = ts.do(t, "", http.MethodPost, "/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, pair.AccessToken))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("access token used as refresh: expected 401, got %d", rec.Code)
	}
}

func TestDevLogin(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "", http.MethodGet, "/auth/dev?name=alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out struct {
		Tokens auth.TokenPair `json:"tokens"`
	}
	decodeBody(t, rec, &out)
	if _, err := ts.jwtMgr.ValidateKind(out.Tokens.AccessToken, auth.KindAccess); err != nil {
		t.Errorf("dev login issued a bad token: %v", err)
	}

	if rec := ts.do(t, "", http.MethodGet, "/auth/dev", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing name: expected 400, got %d", rec.Code)
	}

	off := NewAuthHandler(auth.NewGoogleOAuth("", "", ""), ts.jwtMgr, ts.users, false)
	rec = httptest.NewRecorder()
	off.DevLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/dev?name=alice", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("dev mode off: expected 404, got %d", rec.Code)
	}
}

func TestGoogleLoginUnconfigured(t *testing.T) {
	ts := newTestServer(t)
	if rec := ts.do(t, "", http.MethodGet, "/auth/google/login", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestGoogleLoginSetsState(t *testing.T) {
	h := NewAuthHandler(auth.NewGoogleOAuth("id", "secret", "http://localhost/cb"), auth.NewJWTManager("s"), nil, false)
	rec := httptest.NewRecorder()
	h.GoogleLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != stateCookie {
		t.Fatalf("expected state cookie, got %v", cookies)
	}
	if !strings.Contains(rec.Header().Get("Location"), "state="+cookies[0].Value) {
		t.Errorf("redirect does not carry the cookie state: %s", rec.Header().Get("Location"))
	}
}

func TestGoogleCallbackRejectsStateMismatch(t *testing.T) {
	h := NewAuthHandler(auth.NewGoogleOAuth("id", "secret", "http://localhost/cb"), auth.NewJWTManager("s"), nil, false)
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state=one", nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: "two"})
	rec := httptest.NewRecorder()
	h.GoogleCallback(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
