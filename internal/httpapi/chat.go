// Package httpapi exposes the chat surface: a JSON message endpoint, a
// WebSocket session endpoint, and health/metrics.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/balitek/villabot/internal/bot"
)

// ChatHandler adapts the router to HTTP transports.
type ChatHandler struct {
	router *bot.Router
	logger *zap.Logger
}

func NewChatHandler(router *bot.Router, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{router: router, logger: logger}
}

// Register mounts all chat endpoints on mux.
func (h *ChatHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/chat", h.handleChat)
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	h.RegisterWebSocket(mux)
}

// chatRequest is one incoming chat event. Exactly one of Text or
// Callback should be set; Callback carries a button press.
type chatRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text,omitempty"`
	Callback  string `json:"callback,omitempty"`
	Start     bool   `json:"start,omitempty"`
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	reply := h.dispatch(r, req)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(struct {
		SessionID string    `json:"session_id"`
		Reply     bot.Reply `json:"reply"`
	}{req.SessionID, reply}); err != nil {
		h.logger.Warn("Failed to write chat response", zap.Error(err))
	}
}

func (h *ChatHandler) dispatch(r *http.Request, req chatRequest) bot.Reply {
	ctx := r.Context()
	switch {
	case req.Start:
		return h.router.Start(ctx)
	case req.Callback != "":
		return h.router.HandleCommand(ctx, req.SessionID, req.Callback)
	default:
		return h.router.HandleText(ctx, req.SessionID, req.Text)
	}
}

func (h *ChatHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
