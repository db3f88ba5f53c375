// Package enrich proposes values for empty record attributes using the
// search gateway and the review summarizer. Heuristics are best-effort:
// a failed strategy leaves its attribute out of the proposal.
package enrich

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/balitek/villabot/internal/metrics"
	"github.com/balitek/villabot/internal/models"
	"github.com/balitek/villabot/internal/reviews"
	"github.com/balitek/villabot/internal/search"
)

// itReviewSuffix is the broad multilingual connectivity query appended
// when hunting for IT-relevant reviews.
const itReviewSuffix = " review reviews internet wifi wi-fi jaringan network connection" +
	" connectivity bandwidth signal kecepatan speed lambat slow kencang fast koneksi IT" +
	" remote work digital nomad streaming video call zoom latency ping Mbps mb/s fiber" +
	" fibre ethernet 4G 5G LTE"

// Engine builds enrichment candidates for one record at a time.
type Engine struct {
	gateway    search.Gateway
	summarizer *reviews.Summarizer
	region     string
	logger     *zap.Logger
}

func NewEngine(gateway search.Gateway, summarizer *reviews.Summarizer, region string, logger *zap.Logger) *Engine {
	return &Engine{
		gateway:    gateway,
		summarizer: summarizer,
		region:     region,
		logger:     logger,
	}
}

// run carries per-record state so the places engine is queried at most
// once per enrichment pass.
type run struct {
	engine    *Engine
	base      string
	place     *search.Result
	placeOnce bool
}

// enrichOrder fixes the strategy execution order; several strategies
// share one memoized places lookup.
var enrichOrder = []string{
	models.AttrContact,
	models.AttrRoomCount,
	models.AttrLocation,
	models.AttrYearBuilt,
	models.AttrSubdistrict,
	models.AttrType,
	models.AttrITReview,
}

// Propose returns candidate values for each empty attribute of rec.
// The second return is false when no attribute yielded a value, in
// which case no proposal should be staged.
func (e *Engine) Propose(ctx context.Context, rec models.Record) (map[string]string, bool) {
	metrics.EnrichmentRuns.Inc()

	r := &run{
		engine: e,
		base:   fmt.Sprintf("%s %s %s", rec.Key.Name, rec.Key.Village, e.region),
	}
	strategies := map[string]func(ctx context.Context, rec models.Record) string{
		models.AttrContact:     r.contactPerson,
		models.AttrRoomCount:   r.roomCount,
		models.AttrLocation:    r.location,
		models.AttrYearBuilt:   r.yearBuilt,
		models.AttrSubdistrict: r.subdistrict,
		models.AttrType:        r.propertyType,
		models.AttrITReview:    r.itReviewSummary,
	}

	updates := make(map[string]string)
	for _, attr := range rec.EmptyAttrs(enrichOrder) {
		if v := strategies[attr](ctx, rec); v != "" {
			updates[attr] = v
			metrics.EnrichmentFieldsProposed.WithLabelValues(attr).Inc()
		}
	}

	if len(updates) == 0 {
		return nil, false
	}
	e.logger.Info("Enrichment proposed values",
		zap.String("name", rec.Key.Name),
		zap.String("village", rec.Key.Village),
		zap.Int("attributes", len(updates)),
	)
	return updates, true
}

// places memoizes the one places lookup shared by several strategies.
func (r *run) places(ctx context.Context) search.Result {
	if !r.placeOnce {
		res := r.engine.gateway.Places(ctx, r.base)
		r.place = &res
		r.placeOnce = true
	}
	return *r.place
}
