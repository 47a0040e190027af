package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/freeeve/veche/internal/auth"
)

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		list   string
		origin string
		want   bool
	}{
		{"*", "https://any.example", true},
		{"https://a.example,https://b.example", "https://b.example", true},
		{"https://a.example", "https://evil.example", false},
		{"https://a.example", "", true},
	}
	for _, tt := range tests {
		if got := originAllowed(parseOrigins(tt.list), tt.origin); got != tt.want {
			t.Errorf("%q / %q: expected %v, got %v", tt.list, tt.origin, tt.want, got)
		}
	}
}

func nextEvent(t *testing.T, c *WSConn) WSEvent {
	t.Helper()
	select {
	case data := <-c.send:
		var ev WSEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reply")
	}
	return WSEvent{}
}

func TestHandleMessage(t *testing.T) {
	hub := NewHub()
	h := NewWSHandler(hub, auth.NewJWTManager("secret"), "*")
	c := newTestConn("user-1")
	hub.Register(c)

	h.handleMessage(c, ClientMessage{Action: "subscribe", MatchID: "m1"})
	ev := nextEvent(t, c)
	if ev.Type != EventSubscribed || ev.MatchID != "m1" || hub.MatchSubscriberCount("m1") != 1 {
		t.Errorf("unexpected subscribe reply %+v", ev)
	}

	h.handleMessage(c, ClientMessage{Action: "subscribe"})
	if ev := nextEvent(t, c); ev.Type != EventError {
		t.Errorf("expected an error for a missing match id, got %+v", ev)
	}

	h.handleMessage(c, ClientMessage{Action: "vote", MatchID: "m1"})
	if ev := nextEvent(t, c); ev.Type != EventError {
		t.Errorf("expected an error for an unknown action, got %+v", ev)
	}

	h.handleMessage(c, ClientMessage{Action: "unsubscribe", MatchID: "m1"})
	if ev := nextEvent(t, c); ev.Type != EventUnsubscribed || hub.MatchSubscriberCount("m1") != 0 {
		t.Errorf("unexpected unsubscribe reply %+v", ev)
	}
}

// readEvents reads frames until n events arrived. The writer may batch several
// events into one frame separated by newlines.
func readEvents(t *testing.T, conn *websocket.Conn, n int) []WSEvent {
	t.Helper()
	var events []WSEvent
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for len(events) < n {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v (have %d events)", err, len(events))
		}
		for _, line := range bytes.Split(data, []byte("\n")) {
			var ev WSEvent
			if err := json.Unmarshal(line, &ev); err != nil {
				t.Fatalf("unmarshal %q: %v", line, err)
			}
			events = append(events, ev)
		}
	}
	return events
}

func TestServeWSSubscribesAndDelivers(t *testing.T) {
	hub := NewHub()
	jwtMgr := auth.NewJWTManager("secret")
	h := NewWSHandler(hub, jwtMgr, "https://veche.example")
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	token, err := jwtMgr.GenerateAccessToken("user-1")
	if err != nil {
		t.Fatal(err)
	}

	if _, resp, err := websocket.DefaultDialer.Dial(wsURL, nil); err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %v", err)
	}
	bad := http.Header{"Origin": []string{"https://evil.example"}}
	if _, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, bad); err == nil || resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for a foreign origin, got %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token+"&match_id=m1", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	events := readEvents(t, conn, 2)
	if events[0].Type != EventConnected || events[1].Type != EventSubscribed || events[1].MatchID != "m1" {
		t.Fatalf("unexpected handshake events %+v", events)
	}

	hub.BroadcastMatchEvent("m1", "phase_changed", map[string]int{"seq": 1})
	ev := readEvents(t, conn, 1)[0]
	if ev.Type != "phase_changed" || ev.MatchID != "m1" {
		t.Errorf("unexpected broadcast %+v", ev)
	}
}
