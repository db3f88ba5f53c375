// Package agent runs the multi-turn tool-invocation loop between the
// generative backend and the search gateway.
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/balitek/villabot/internal/llm"
	"github.com/balitek/villabot/internal/metrics"
	"github.com/balitek/villabot/internal/search"
	"github.com/balitek/villabot/internal/tracing"
)

const fallbackAnswer = "Maaf, saya tidak menemukan informasi yang cukup untuk menjawab pertanyaan itu."

const systemPromptFmt = `Anda adalah AI Agent properti di Bali. Jawab berdasarkan data di bawah dulu. Jika data tidak ada atau kosong, gunakan alat yang sesuai.
- Untuk KONTAK, ALAMAT, TELEPON -> Gunakan ` + "`search_google_maps`" + `.
- Untuk ULASAN PELANGGAN -> Gunakan ` + "`search_the_web`" + `.
- Untuk data dari Traveloka (review, contact, dll) -> Gunakan ` + "`search_traveloka`" + `.
- Untuk data dari Agoda (review, harga, fasilitas) -> Gunakan ` + "`search_agoda`" + `.
- Untuk data dari Tiket.com (review, harga) -> Gunakan ` + "`search_tiketcom`" + `.
- Untuk data dari Booking.com (review, fasilitas) -> Gunakan ` + "`search_bookingcom`" + `.

--- DATA ---
%s
--- AKHIR DATA ---`

// Agent answers free-text questions over the dataset, letting the
// backend request lookups until it can reply. Conversation state lives
// only for the duration of one Ask call.
type Agent struct {
	client   llm.Client
	gateway  search.Gateway
	maxTurns int
	logger   *zap.Logger
}

func New(client llm.Client, gateway search.Gateway, maxTurns int, logger *zap.Logger) *Agent {
	return &Agent{
		client:   client,
		gateway:  gateway,
		maxTurns: maxTurns,
		logger:   logger,
	}
}

// Ask runs the loop: AwaitingModel -> (ToolRequested -> ToolDispatch ->
// AwaitingModel)* -> Done. The loop ends on final text, an unknown tool
// name, a degraded tool result, context cancellation, or the max-turn
// bound. Tool results are appended and consumed in strict
// request/response order.
func (a *Agent) Ask(ctx context.Context, datasetContext, question string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "agent.ask")
	defer span.End()

	metrics.AgentConversations.Inc()

	conv, err := a.client.StartConversation(ctx, fmt.Sprintf(systemPromptFmt, datasetContext), Declarations())
	if err != nil {
		return "", fmt.Errorf("failed to start conversation: %w", err)
	}

	reply, err := conv.Send(ctx, llm.Message{Role: "user", Content: question})
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}

	for turn := 0; reply.ToolCall != nil; turn++ {
		if turn >= a.maxTurns {
			metrics.AgentTurnLimitHits.Inc()
			a.logger.Warn("Agent hit max-turn bound",
				zap.Int("max_turns", a.maxTurns),
				zap.String("last_tool", reply.ToolCall.Name),
			)
			return fallbackAnswer, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		call := *reply.ToolCall
		result, known := a.dispatch(ctx, call)
		if !known {
			// Defensive termination, not an error: no result is
			// appended for a tool that does not exist.
			a.logger.Warn("Model requested unknown tool", zap.String("tool", call.Name))
			return fallbackAnswer, nil
		}
		metrics.AgentToolCalls.WithLabelValues(call.Name).Inc()
		a.logger.Info("Dispatched tool call",
			zap.String("tool", call.Name),
			zap.String("query", call.Query),
		)

		if result.IsDegraded() {
			// Nothing to show the model; end early rather than risk an
			// endless request cycle.
			return fallbackAnswer, nil
		}

		reply, err = conv.Send(ctx, llm.Message{
			Role:       "tool",
			ToolResult: &llm.ToolResult{Name: call.Name, Result: result.Text()},
		})
		if err != nil {
			return "", fmt.Errorf("model call failed: %w", err)
		}
	}

	if reply.Text == "" {
		return fallbackAnswer, nil
	}
	return reply.Text, nil
}
