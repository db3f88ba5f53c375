package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/balitek/villabot/internal/llm"
	"github.com/balitek/villabot/internal/search"
)

// scriptedConv replays a fixed sequence of model replies and records
// everything sent to it.
type scriptedConv struct {
	replies []llm.Reply
	sent    []llm.Message
	step    int
}

func (c *scriptedConv) Send(ctx context.Context, msg llm.Message) (llm.Reply, error) {
	c.sent = append(c.sent, msg)
	if c.step >= len(c.replies) {
		return llm.Reply{}, errors.New("script exhausted")
	}
	r := c.replies[c.step]
	c.step++
	return r, nil
}

type scriptedLLM struct {
	conv   *scriptedConv
	system string
	tools  []llm.Tool
}

func (s *scriptedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("not used")
}

func (s *scriptedLLM) StartConversation(ctx context.Context, systemPrompt string, tools []llm.Tool) (llm.Conversation, error) {
	s.system = systemPrompt
	s.tools = tools
	return s.conv, nil
}

type stubGateway struct {
	results map[string]search.Result // keyed by query
	queries []string
}

func (g *stubGateway) Web(ctx context.Context, query string) search.Result {
	g.queries = append(g.queries, query)
	if r, ok := g.results[query]; ok {
		return r
	}
	return search.Degraded(search.EngineWeb, "empty")
}

func (g *stubGateway) Places(ctx context.Context, query string) search.Result {
	g.queries = append(g.queries, query)
	if r, ok := g.results[query]; ok {
		return r
	}
	return search.Degraded(search.EnginePlaces, "empty")
}

func (g *stubGateway) Scoped(ctx context.Context, domain, query string) search.Result {
	return g.Web(ctx, search.ScopedQuery(domain, query))
}

func snippets(ss ...string) search.Result {
	return search.Result{Engine: search.EngineWeb, Snippets: ss}
}

func TestAskAnswersDirectly(t *testing.T) {
	cli := &scriptedLLM{conv: &scriptedConv{replies: []llm.Reply{
		{Text: "Villa Damai ada di Sidemen."},
	}}}
	a := New(cli, &stubGateway{}, 8, zap.NewNop())

	answer, err := a.Ask(context.Background(), "dataset here", "di mana Villa Damai?")
	require.NoError(t, err)
	assert.Equal(t, "Villa Damai ada di Sidemen.", answer)
	assert.Contains(t, cli.system, "dataset here")
	assert.Len(t, cli.tools, 6)
}

func TestAskDispatchesToolsInOrder(t *testing.T) {
	conv := &scriptedConv{replies: []llm.Reply{
		{ToolCall: &llm.ToolCall{Name: ToolPlaces, Query: "Villa Damai Sidemen"}},
		{ToolCall: &llm.ToolCall{Name: ToolAgoda, Query: "Villa Damai review"}},
		{Text: "Kontak: +62811. Review bagus."},
	}}
	gw := &stubGateway{results: map[string]search.Result{
		"Villa Damai Sidemen":               {Engine: search.EnginePlaces, Place: &search.Place{Phone: "+62811"}},
		"site:agoda.com Villa Damai review": snippets("review bagus"),
	}}
	a := New(&scriptedLLM{conv: conv}, gw, 8, zap.NewNop())

	answer, err := a.Ask(context.Background(), "data", "info kontak Villa Damai")
	require.NoError(t, err)
	assert.Equal(t, "Kontak: +62811. Review bagus.", answer)

	// user question, then two tool results, in strict order
	require.Len(t, conv.sent, 3)
	assert.Equal(t, "user", conv.sent[0].Role)
	require.NotNil(t, conv.sent[1].ToolResult)
	assert.Equal(t, ToolPlaces, conv.sent[1].ToolResult.Name)
	require.NotNil(t, conv.sent[2].ToolResult)
	assert.Equal(t, ToolAgoda, conv.sent[2].ToolResult.Name)

	assert.Equal(t, []string{"Villa Damai Sidemen", "site:agoda.com Villa Damai review"}, gw.queries)
}

func TestAskUnknownToolTerminatesLoop(t *testing.T) {
	conv := &scriptedConv{replies: []llm.Reply{
		{ToolCall: &llm.ToolCall{Name: "search_everything", Query: "x"}},
	}}
	a := New(&scriptedLLM{conv: conv}, &stubGateway{}, 8, zap.NewNop())

	answer, err := a.Ask(context.Background(), "data", "q")
	require.NoError(t, err)
	assert.Equal(t, fallbackAnswer, answer)
	// No tool result is appended for a tool that does not exist.
	require.Len(t, conv.sent, 1)
}

func TestAskDegradedResultEndsLoopEarly(t *testing.T) {
	conv := &scriptedConv{replies: []llm.Reply{
		{ToolCall: &llm.ToolCall{Name: ToolWeb, Query: "no results for this"}},
	}}
	a := New(&scriptedLLM{conv: conv}, &stubGateway{}, 8, zap.NewNop())

	answer, err := a.Ask(context.Background(), "data", "q")
	require.NoError(t, err)
	assert.Equal(t, fallbackAnswer, answer)
	require.Len(t, conv.sent, 1)
}

func TestAskEnforcesMaxTurns(t *testing.T) {
	// Model asks for the same tool forever.
	replies := make([]llm.Reply, 20)
	for i := range replies {
		replies[i] = llm.Reply{ToolCall: &llm.ToolCall{Name: ToolWeb, Query: "loop"}}
	}
	conv := &scriptedConv{replies: replies}
	gw := &stubGateway{results: map[string]search.Result{"loop": snippets("more")}}
	a := New(&scriptedLLM{conv: conv}, gw, 3, zap.NewNop())

	answer, err := a.Ask(context.Background(), "data", "q")
	require.NoError(t, err)
	assert.Equal(t, fallbackAnswer, answer)
	assert.Len(t, gw.queries, 3, "dispatches must stop at the max-turn bound")
}

func TestAskHonorsContextCancellation(t *testing.T) {
	conv := &scriptedConv{replies: []llm.Reply{
		{ToolCall: &llm.ToolCall{Name: ToolWeb, Query: "loop"}},
		{ToolCall: &llm.ToolCall{Name: ToolWeb, Query: "loop"}},
	}}
	gw := &stubGateway{results: map[string]search.Result{"loop": snippets("more")}}
	a := New(&scriptedLLM{conv: conv}, gw, 8, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Ask(ctx, "data", "q")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScopedToolDomains(t *testing.T) {
	assert.Equal(t, "traveloka.com", scopedDomains[ToolTraveloka])
	assert.Equal(t, "agoda.com", scopedDomains[ToolAgoda])
	assert.Equal(t, "tiket.com", scopedDomains[ToolTiketcom])
	assert.Equal(t, "booking.com", scopedDomains[ToolBookingcom])
	assert.Len(t, scopedDomains, 4)
}
