package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/balitek/villabot/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(config.LLMConfig{
		BaseURL: srv.URL,
		Model:   "test-model",
		Timeout: 2 * time.Second,
	}, zap.NewNop())
}

func TestComplete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/complete", r.URL.Path)
		var req completeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "summarize this", req.Prompt)
		json.NewEncoder(w).Encode(completeResponse{Text: "summary"})
	})

	got, err := c.Complete(context.Background(), "summarize this")
	require.NoError(t, err)
	assert.Equal(t, "summary", got)
}

func TestCompleteServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.Complete(context.Background(), "x")
	assert.Error(t, err)
}

func TestConversationReplaysHistory(t *testing.T) {
	var requests []chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat", r.URL.Path)
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		if len(requests) == 1 {
			json.NewEncoder(w).Encode(Reply{ToolCall: &ToolCall{Name: "search_the_web", Query: "villa"}})
			return
		}
		json.NewEncoder(w).Encode(Reply{Text: "final answer"})
	})

	conv, err := c.StartConversation(context.Background(), "system prompt", []Tool{{Name: "search_the_web"}})
	require.NoError(t, err)

	reply, err := conv.Send(context.Background(), Message{Role: "user", Content: "question"})
	require.NoError(t, err)
	require.NotNil(t, reply.ToolCall)
	assert.Equal(t, "villa", reply.ToolCall.Query)

	reply, err = conv.Send(context.Background(), Message{
		Role:       "tool",
		ToolResult: &ToolResult{Name: "search_the_web", Result: "snippet"},
	})
	require.NoError(t, err)
	assert.Equal(t, "final answer", reply.Text)

	// Second request carries the full history: user turn, assistant
	// tool-call marker, tool result.
	require.Len(t, requests, 2)
	assert.Equal(t, "system prompt", requests[1].System)
	require.Len(t, requests[1].Messages, 3)
	assert.Equal(t, "user", requests[1].Messages[0].Role)
	assert.Equal(t, "assistant", requests[1].Messages[1].Role)
	assert.Equal(t, "tool", requests[1].Messages[2].Role)
	require.NotNil(t, requests[1].Messages[2].ToolResult)
	assert.Equal(t, "snippet", requests[1].Messages[2].ToolResult.Result)
}
