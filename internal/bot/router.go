// Package bot routes incoming chat events: structured callbacks to the
// browse/confirm flows, free text to the conversational agent, and the
// IT-review marker phrase to the bulk scanner.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/balitek/villabot/internal/agent"
	"github.com/balitek/villabot/internal/command"
	"github.com/balitek/villabot/internal/commit"
	"github.com/balitek/villabot/internal/enrich"
	"github.com/balitek/villabot/internal/metrics"
	"github.com/balitek/villabot/internal/proposal"
	"github.com/balitek/villabot/internal/reviews"
	"github.com/balitek/villabot/internal/search"
	"github.com/balitek/villabot/internal/store"
)

const (
	// scanMarker routes free text to the bulk IT-review scan instead of
	// the agent.
	scanMarker = "review it"

	retryMessage   = "Maaf, koneksi sedang lambat. Coba lagi sebentar."
	staleMessage   = "Tidak ada data usulan untuk disimpan atau sudah kadaluarsa."
	savedMessage   = "✅ Data berhasil disimpan."
	saveFailed     = "❌ Gagal menyimpan data."
	canceledByUser = "⎌ Penyimpanan dibatalkan oleh pengguna."
)

// Router wires every core component behind two entry points. One
// Router serves all sessions; per-session work is sequential because
// the transport delivers one event at a time per session.
type Router struct {
	store      store.Client
	proposals  proposal.Store
	enricher   *enrich.Engine
	committer  *commit.Service
	agent      *agent.Agent
	gateway    search.Gateway
	summarizer *reviews.Summarizer
	region     string
	logger     *zap.Logger
}

type Deps struct {
	Store      store.Client
	Proposals  proposal.Store
	Enricher   *enrich.Engine
	Committer  *commit.Service
	Agent      *agent.Agent
	Gateway    search.Gateway
	Summarizer *reviews.Summarizer
	Region     string
	Logger     *zap.Logger
}

func NewRouter(d Deps) *Router {
	return &Router{
		store:      d.Store,
		proposals:  d.Proposals,
		enricher:   d.Enricher,
		committer:  d.Committer,
		agent:      d.Agent,
		gateway:    d.Gateway,
		summarizer: d.Summarizer,
		region:     d.Region,
		logger:     d.Logger,
	}
}

// HandleCommand processes one structured callback. It never panics out
// and never returns an error to the transport; failures become
// user-visible messages.
func (r *Router) HandleCommand(ctx context.Context, sessionID, data string) (reply Reply) {
	defer r.guard(&reply, "command", data)

	cmd, err := command.Parse(data)
	if err != nil {
		r.logger.Warn("Unparseable callback", zap.String("data", data), zap.Error(err))
		return textReply(retryMessage)
	}

	switch c := cmd.(type) {
	case command.ViewAreas:
		return r.viewAreas(ctx)
	case command.ViewVillages:
		return r.viewVillages(ctx, c.Area)
	case command.ViewProperties:
		return r.viewProperties(ctx, c.Area, c.Village)
	case command.ViewDetails:
		return r.viewDetails(ctx, sessionID, c.Area, c.Row)
	case command.ViewITReviews:
		return textReply("Silakan ketik kata kunci untuk review IT (misal: 'review IT wifi cepat'). Bot akan scan dan tampilkan properti yang sesuai.")
	case command.ConfirmSave:
		return r.confirmSave(ctx, sessionID, c.Token)
	case command.CancelSave:
		return r.cancelSave(ctx, sessionID, c.Token)
	default:
		return textReply(retryMessage)
	}
}

// HandleText processes free text: the scan marker goes to the bulk
// scanner, everything else to the agent.
func (r *Router) HandleText(ctx context.Context, sessionID, text string) (reply Reply) {
	defer r.guard(&reply, "text", text)

	if strings.Contains(strings.ToLower(text), scanMarker) {
		keyword := strings.TrimSpace(strings.ReplaceAll(strings.ToLower(text), scanMarker, ""))
		return r.scanITReviews(ctx, keyword)
	}

	datasetContext, err := r.datasetContext(ctx)
	if err != nil {
		r.logger.Error("Failed to build dataset context", zap.Error(err))
		return textReply("Maaf, database tidak dapat diakses.")
	}

	answer, err := r.agent.Ask(ctx, datasetContext, text)
	if err != nil {
		r.logger.Error("Agent failed", zap.Error(err))
		return textReply("Maaf, terjadi kesalahan pada AI Agent.")
	}
	return textReply(answer)
}

// Start returns the welcome reply with the area menu.
func (r *Router) Start(ctx context.Context) (reply Reply) {
	defer r.guard(&reply, "command", "start")

	areas := r.viewAreas(ctx)
	areas.Text = "👋 Selamat datang!\n\nAnda bisa memilih area di bawah ini, mencari berdasarkan IT Review, atau langsung ajukan pertanyaan kepada saya (misal: 'cari info kontak Villa Damai')."
	return areas
}

func (r *Router) confirmSave(ctx context.Context, sessionID, token string) Reply {
	p, err := r.proposals.Get(ctx, sessionID, token)
	if errors.Is(err, proposal.ErrProposalNotFound) {
		return textReply(staleMessage)
	} else if err != nil {
		r.logger.Error("Proposal lookup failed", zap.Error(err))
		return textReply(retryMessage)
	}

	if err := r.committer.Commit(ctx, p.Key, p.Updates); err != nil {
		// The proposal stays live so the user can retry, except when
		// the row is gone.
		if errors.Is(err, commit.ErrRowNotFound) {
			_ = r.proposals.Remove(ctx, sessionID, token)
		}
		r.logger.Error("Commit failed", zap.String("token", token), zap.Error(err))
		return textReply(saveFailed)
	}

	if err := r.proposals.Remove(ctx, sessionID, token); err != nil {
		r.logger.Warn("Proposal already removed", zap.String("token", token), zap.Error(err))
	}
	metrics.ProposalsResolved.WithLabelValues("confirm").Inc()
	return textReply(savedMessage)
}

func (r *Router) cancelSave(ctx context.Context, sessionID, token string) Reply {
	if err := r.proposals.Remove(ctx, sessionID, token); err != nil {
		if errors.Is(err, proposal.ErrProposalNotFound) {
			return textReply(staleMessage)
		}
		r.logger.Error("Proposal removal failed", zap.Error(err))
		return textReply(retryMessage)
	}
	metrics.ProposalsResolved.WithLabelValues("cancel").Inc()
	return textReply(canceledByUser)
}

// datasetContext renders every partition for the agent's system prompt.
func (r *Router) datasetContext(ctx context.Context) (string, error) {
	partitions, err := r.store.ListPartitions(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, partition := range partitions {
		headers, rows, err := r.store.ReadRows(ctx, partition)
		if err != nil {
			r.logger.Warn("Skipping unreadable partition",
				zap.String("partition", partition),
				zap.Error(err),
			)
			continue
		}
		fmt.Fprintf(&b, "Data dari area %s:\n", areaLabel(partition))
		for _, rowVals := range rows {
			var fields []string
			for i, h := range headers {
				if i < len(rowVals) && rowVals[i] != "" {
					fields = append(fields, fmt.Sprintf("%s: %s", h, rowVals[i]))
				}
			}
			b.WriteString(strings.Join(fields, ", "))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no readable partitions")
	}
	return b.String(), nil
}

// guard is the top-level handler of last resort: log with context,
// reply with a generic retry message, never let one event kill the
// process.
func (r *Router) guard(reply *Reply, kind, input string) {
	if rec := recover(); rec != nil {
		r.logger.Error("Unhandled panic in router",
			zap.String("kind", kind),
			zap.String("input", input),
			zap.Any("panic", rec),
		)
		*reply = textReply(retryMessage)
	}
}

// areaLabel is the last word of the partition name, matching the menu
// labels of the dataset ("Villa, Hotel, Resort Sidemen" -> "Sidemen").
func areaLabel(partition string) string {
	fields := strings.Fields(partition)
	if len(fields) == 0 {
		return partition
	}
	return fields[len(fields)-1]
}
