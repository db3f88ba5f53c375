package reviews

import (
	"context"

	"go.uber.org/zap"

	"github.com/balitek/villabot/internal/llm"
)

const summarizePrompt = "Anda adalah asisten yang mengekstrak ulasan terkait layanan IT " +
	"(WiFi/internet/network/connection/bandwidth/latency/signal) dari teks multi-bahasa. " +
	"Ambil hanya kalimat yang relevan IT, lalu rangkum singkat (1-5 kalimat), jelas dan faktual. " +
	"Jangan sertakan link atau informasi yang tidak relevan. Teks:\n\n"

// Summarizer condenses filtered review text with the generative
// backend, falling back to the input unchanged when the call fails.
type Summarizer struct {
	client llm.Client
	logger *zap.Logger
}

func NewSummarizer(client llm.Client, logger *zap.Logger) *Summarizer {
	return &Summarizer{client: client, logger: logger}
}

// Summarize returns a 1-5 sentence IT-focused summary of text. On any
// backend failure the filtered input is returned cleaned, never an
// error.
func (s *Summarizer) Summarize(ctx context.Context, text string) string {
	if text == "" {
		return ""
	}
	refined, err := s.client.Complete(ctx, summarizePrompt+text)
	if err != nil || refined == "" {
		if err != nil {
			s.logger.Warn("Review summarization failed, using filtered text", zap.Error(err))
		}
		return CleanSnippet(text)
	}
	return CleanSnippet(refined)
}
