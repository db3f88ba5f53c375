package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/balitek/villabot/internal/bot"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // secure via proxy in prod
}

// RegisterWebSocket registers the /chat/ws endpoint.
func (h *ChatHandler) RegisterWebSocket(mux *http.ServeMux) {
	mux.HandleFunc("/chat/ws", h.handleWS)
}

// handleWS runs one chat session over a WebSocket. Events are processed
// sequentially in arrival order, so everything within the session stays
// strictly ordered.
func (h *ChatHandler) handleWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(16 * 1024)
	conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
		return nil
	})

	// Heartbeat ping
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(20 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	if err := conn.WriteJSON(struct {
		SessionID string    `json:"session_id"`
		Reply     bot.Reply `json:"reply"`
	}{sessionID, h.router.Start(r.Context())}); err != nil {
		return
	}

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket closed unexpectedly",
					zap.String("session_id", sessionID),
					zap.Error(err),
				)
			}
			return
		}
		req.SessionID = sessionID

		reply := h.dispatch(r, req)
		if err := conn.WriteJSON(struct {
			SessionID string    `json:"session_id"`
			Reply     bot.Reply `json:"reply"`
		}{sessionID, reply}); err != nil {
			return
		}
	}
}
