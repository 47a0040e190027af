package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/veche/internal/auth"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second // Must be less than pongWait
	maxMsgSize  = 4096
	sendBufSize = 256
)

// WSHandler handles WebSocket connections.
type WSHandler struct {
	hub      *Hub
	jwtMgr   *auth.JWTManager
	upgrader websocket.Upgrader
}

// NewWSHandler creates a WSHandler. allowedOrigins uses the CORS_ORIGINS
// format: "*" or a comma-separated list.
func NewWSHandler(hub *Hub, jwtMgr *auth.JWTManager, allowedOrigins string) *WSHandler {
	allowed := parseOrigins(allowedOrigins)
	return &WSHandler{
		hub:    hub,
		jwtMgr: jwtMgr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(allowed, r.Header.Get("Origin"))
			},
		},
	}
}

func parseOrigins(list string) map[string]bool {
	allowed := make(map[string]bool)
	for _, o := range strings.Split(list, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}
	return allowed
}

// originAllowed accepts non-browser clients, which send no Origin.
func originAllowed(allowed map[string]bool, origin string) bool {
	return origin == "" || allowed["*"] || allowed[origin]
}

// ServeWS handles GET /api/v1/ws and upgrades the connection to WebSocket.
// Auth via ?token= query parameter (WebSocket can't send headers). An optional
// ?match_id= subscribes the connection right away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, `{"error":"missing token parameter"}`, http.StatusUnauthorized)
		return
	}

	claims, err := h.jwtMgr.ValidateKind(tokenStr, auth.KindAccess)
	if err != nil {
		http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("userId", claims.UserID).Msg("WebSocket upgrade failed")
		return
	}

	client := &WSConn{
		conn:   conn,
		userID: claims.UserID,
		send:   make(chan []byte, sendBufSize),
	}
	h.hub.Register(client)
	client.reply(WSEvent{Type: EventConnected, Data: map[string]any{"user_id": claims.UserID}})
	if matchID := r.URL.Query().Get("match_id"); matchID != "" {
		h.handleMessage(client, ClientMessage{Action: "subscribe", MatchID: matchID})
	}

	go h.writePump(client)
	go h.readPump(client)

	log.Info().Str("userId", claims.UserID).Int("total", h.hub.ConnectionCount()).Msg("WebSocket client connected")
}

// handleMessage applies one client message and answers on the connection.
func (h *WSHandler) handleMessage(c *WSConn, msg ClientMessage) {
	if msg.MatchID == "" && (msg.Action == "subscribe" || msg.Action == "unsubscribe") {
		c.reply(WSEvent{Type: EventError, Data: map[string]string{"error": "match_id is required"}})
		return
	}
	switch msg.Action {
	case "subscribe":
		h.hub.Subscribe(c, msg.MatchID)
		c.reply(WSEvent{Type: EventSubscribed, MatchID: msg.MatchID, Data: map[string]int{
			"subscribers": h.hub.MatchSubscriberCount(msg.MatchID),
		}})
		log.Debug().Str("userId", c.userID).Str("matchId", msg.MatchID).Msg("WebSocket subscribed")
	case "unsubscribe":
		h.hub.Unsubscribe(c, msg.MatchID)
		c.reply(WSEvent{Type: EventUnsubscribed, MatchID: msg.MatchID})
	default:
		c.reply(WSEvent{Type: EventError, Data: map[string]string{"error": "unknown action " + strconv.Quote(msg.Action)}})
	}
}

// readPump reads messages from the WebSocket connection.
func (h *WSHandler) readPump(c *WSConn) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
		log.Info().Str("userId", c.userID).Msg("WebSocket client disconnected")
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("userId", c.userID).Msg("WebSocket unexpected close")
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.reply(WSEvent{Type: EventError, Data: map[string]string{"error": "invalid message"}})
			continue
		}
		h.handleMessage(c, msg)
	}
}

// writePump writes messages to the WebSocket connection.
func (h *WSHandler) writePump(c *WSConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Drain queued messages into the same write
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte("\n"))
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
