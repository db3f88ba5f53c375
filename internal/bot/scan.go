package bot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/balitek/villabot/internal/models"
	"github.com/balitek/villabot/internal/reviews"
)

// scanLimit caps how many matches a bulk scan reports.
const scanLimit = 10

// scanITReviews walks every record, searches for connectivity reviews,
// filters and summarizes them, and reports up to scanLimit matches that
// contain the keyword.
func (r *Router) scanITReviews(ctx context.Context, keyword string) Reply {
	partitions, err := r.store.ListPartitions(ctx)
	if err != nil {
		r.logger.Error("Failed to list partitions for scan", zap.Error(err))
		return textReply(retryMessage)
	}

	var matches []string
	for _, partition := range partitions {
		headers, rows, err := r.store.ReadRows(ctx, partition)
		if err != nil {
			r.logger.Warn("Skipping partition in scan",
				zap.String("partition", partition),
				zap.Error(err),
			)
			continue
		}
		for i, rowVals := range rows {
			if len(matches) >= scanLimit {
				break
			}
			if err := ctx.Err(); err != nil {
				return textReply(retryMessage)
			}

			rec := models.NewRecord(partition, i+2, headers, rowVals)
			if rec.Key.Name == "" || rec.Key.Village == "" {
				continue
			}

			query := fmt.Sprintf("%s %s %s review internet wifi jaringan IT %s",
				rec.Key.Name, rec.Key.Village, r.region, keyword)
			res := r.gateway.Web(ctx, query)
			if res.IsDegraded() {
				continue
			}

			filtered := reviews.Filter(res.Text())
			if filtered == "" {
				continue
			}
			if keyword != "" && !strings.Contains(strings.ToLower(filtered), strings.ToLower(keyword)) {
				continue
			}

			summary := reviews.FirstSentences(r.summarizer.Summarize(ctx, filtered), 3)
			matches = append(matches, fmt.Sprintf("• %s (%s): %s", rec.Key.Name, rec.Key.Village, summary))
		}
	}

	if len(matches) == 0 {
		return textReply("Tidak ditemukan properti dengan review IT yang sesuai.")
	}
	return textReply(fmt.Sprintf("Properti dengan ulasan IT mengandung '%s':\n%s",
		keyword, strings.Join(matches, "\n")))
}
