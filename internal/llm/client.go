package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/balitek/villabot/internal/config"
)

// Tool declares a callable lookup for the generative backend. Every
// tool takes a single required string parameter named "query".
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ToolCall is a structured request from the backend naming an external
// lookup to perform. Produced by the model, never by the user.
type ToolCall struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

// Reply is one model step: final text, or exactly one tool call.
type Reply struct {
	Text     string    `json:"text,omitempty"`
	ToolCall *ToolCall `json:"tool_call,omitempty"`
}

// Message is one turn sent to the backend.
type Message struct {
	Role       string      `json:"role"` // "user", "assistant", "tool"
	Content    string      `json:"content,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// ToolResult carries a dispatched tool's output back to the model.
type ToolResult struct {
	Name   string `json:"name"`
	Result string `json:"result"`
}

// Conversation is a multi-turn exchange with the backend. Not safe for
// concurrent use; owned by a single agent invocation.
type Conversation interface {
	Send(ctx context.Context, msg Message) (Reply, error)
}

// Client is the generative backend collaborator.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	StartConversation(ctx context.Context, systemPrompt string, tools []Tool) (Conversation, error)
}

// HTTPClient talks to the LLM sidecar service over HTTP JSON.
type HTTPClient struct {
	baseURL string
	model   string
	http    *http.Client
	logger  *zap.Logger
}

// NewHTTPClient builds a client for the configured sidecar.
func NewHTTPClient(cfg config.LLMConfig, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type completeRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
}

type completeResponse struct {
	Text string `json:"text"`
}

// Complete runs a single-shot generation with no tools.
func (c *HTTPClient) Complete(ctx context.Context, prompt string) (string, error) {
	var out completeResponse
	if err := c.post(ctx, "/v1/complete", completeRequest{Model: c.model, Prompt: prompt}, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

type chatRequest struct {
	Model    string    `json:"model,omitempty"`
	System   string    `json:"system"`
	Tools    []Tool    `json:"tools,omitempty"`
	Messages []Message `json:"messages"`
}

// StartConversation opens a tool-enabled exchange. History lives on the
// client side and is replayed on every request; the sidecar is
// stateless.
func (c *HTTPClient) StartConversation(ctx context.Context, systemPrompt string, tools []Tool) (Conversation, error) {
	return &httpConversation{
		client: c,
		system: systemPrompt,
		tools:  tools,
	}, nil
}

type httpConversation struct {
	client  *HTTPClient
	system  string
	tools   []Tool
	history []Message
}

func (conv *httpConversation) Send(ctx context.Context, msg Message) (Reply, error) {
	conv.history = append(conv.history, msg)

	var out Reply
	req := chatRequest{
		Model:    conv.client.model,
		System:   conv.system,
		Tools:    conv.tools,
		Messages: conv.history,
	}
	if err := conv.client.post(ctx, "/v1/chat", req, &out); err != nil {
		return Reply{}, err
	}

	if out.ToolCall != nil {
		conv.history = append(conv.history, Message{
			Role:    "assistant",
			Content: fmt.Sprintf("[tool_call %s: %s]", out.ToolCall.Name, out.ToolCall.Query),
		})
	} else {
		conv.history = append(conv.history, Message{Role: "assistant", Content: out.Text})
	}
	return out, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		c.logger.Error("LLM service error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", b),
		)
		return fmt.Errorf("llm service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode llm response: %w", err)
	}
	return nil
}
