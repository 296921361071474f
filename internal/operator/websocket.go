package operator

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Handler upgrades operator dashboard connections and streams the hub's
// briefs to them.
type Handler struct {
	hub     *Hub
	token   string
	origins []string
}

// NewHandler creates a feed handler. A non-empty token must be presented as
// a bearer token or a "token" query parameter.
func NewHandler(hub *Hub, token string, origins []string) *Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Handler{hub: hub, token: token, origins: origins}
}

type wsMessage struct {
	Type string `json:"type"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		slog.Error("Failed to accept operator WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "feed ended"); closeErr != nil {
			slog.Debug("Failed to close operator websocket", "error", closeErr)
		}
	}()

	c := h.hub.register()
	if c == nil {
		return
	}
	defer h.hub.unregister(c)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := wsjson.Write(ctx, ws, wsMessage{Type: "ready"}); err != nil {
		slog.Debug("Failed to send ready", "client_id", c.id, "error", err)
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer cancel()
		h.readLoop(ctx, ws, c.id)
	}()

	go func() {
		defer wg.Done()
		defer cancel()
		h.writeLoop(ctx, ws, c)
	}()

	wg.Wait()
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.token == "" {
		return true
	}
	got := r.URL.Query().Get("token")
	if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		got = bearer
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}

func (h *Handler) readLoop(ctx context.Context, ws *websocket.Conn, clientID string) {
	for {
		var msg wsMessage
		if err := wsjson.Read(ctx, ws, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 || ctx.Err() != nil {
				slog.Debug("Operator feed closed by client", "client_id", clientID)
			} else {
				slog.Warn("Operator feed read error", "client_id", clientID, "error", err)
			}
			return
		}
		if msg.Type == "ping" {
			if err := wsjson.Write(ctx, ws, wsMessage{Type: "pong"}); err != nil {
				slog.Debug("Failed to send pong", "client_id", clientID, "error", err)
				return
			}
		}
	}
}

func (h *Handler) writeLoop(ctx context.Context, ws *websocket.Conn, c *client) {
	for {
		select {
		case b, ok := <-c.send:
			if !ok {
				return
			}
			if err := wsjson.Write(ctx, ws, b); err != nil {
				slog.Debug("Operator feed write error", "client_id", c.id, "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
