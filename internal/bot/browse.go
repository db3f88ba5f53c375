package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/balitek/villabot/internal/models"
	"github.com/balitek/villabot/internal/proposal"
	"github.com/balitek/villabot/internal/store"
)

func (r *Router) viewAreas(ctx context.Context) Reply {
	partitions, err := r.store.ListPartitions(ctx)
	if err != nil {
		r.logger.Error("Failed to list partitions", zap.Error(err))
		return textReply(retryMessage)
	}

	var buttons [][]Button
	for i, p := range partitions {
		buttons = append(buttons, row(Button{
			Label:    "📍 " + areaLabel(p),
			Callback: fmt.Sprintf("view_desas;%d", i),
		}))
	}
	buttons = append(buttons, row(Button{Label: "🔍 IT Review", Callback: "view_it_reviews"}))
	return Reply{Text: "Silakan pilih salah satu area atau IT Review:", Buttons: buttons}
}

func (r *Router) viewVillages(ctx context.Context, area int) Reply {
	partition, ok := r.partitionName(ctx, area)
	if !ok {
		return textReply(retryMessage)
	}

	headers, rows, err := r.store.ReadRows(ctx, partition)
	if err != nil {
		r.logger.Error("Failed to read partition", zap.String("partition", partition), zap.Error(err))
		return textReply(retryMessage)
	}
	villageIdx, err := store.ColumnIndex(headers, models.AttrVillage)
	if err != nil {
		return textReply("Error: Kolom 'Desa' tidak ditemukan.")
	}

	seen := make(map[string]struct{})
	var villages []string
	for _, rowVals := range rows {
		if villageIdx < len(rowVals) && rowVals[villageIdx] != "" {
			if _, ok := seen[rowVals[villageIdx]]; !ok {
				seen[rowVals[villageIdx]] = struct{}{}
				villages = append(villages, rowVals[villageIdx])
			}
		}
	}
	sort.Strings(villages)

	var buttons [][]Button
	for _, v := range villages {
		buttons = append(buttons, row(Button{
			Label:    v,
			Callback: fmt.Sprintf("view_villas;%d;%s", area, v),
		}))
	}
	buttons = append(buttons, row(Button{Label: "⬅️ Kembali", Callback: "view_areas"}))
	return Reply{
		Text:    fmt.Sprintf("Silakan pilih desa di area *%s*:", areaLabel(partition)),
		Buttons: buttons,
	}
}

func (r *Router) viewProperties(ctx context.Context, area int, village string) Reply {
	partition, ok := r.partitionName(ctx, area)
	if !ok {
		return textReply(retryMessage)
	}

	headers, rows, err := r.store.ReadRows(ctx, partition)
	if err != nil {
		r.logger.Error("Failed to read partition", zap.String("partition", partition), zap.Error(err))
		return textReply(retryMessage)
	}
	nameIdx, err := store.ColumnIndex(headers, models.AttrName)
	if err != nil {
		return textReply("Error: Kolom 'Nama' tidak ditemukan.")
	}
	villageIdx, err := store.ColumnIndex(headers, models.AttrVillage)
	if err != nil {
		return textReply("Error: Kolom 'Desa' tidak ditemukan.")
	}

	var buttons [][]Button
	for i, rowVals := range rows {
		if villageIdx < len(rowVals) && rowVals[villageIdx] == village && nameIdx < len(rowVals) {
			buttons = append(buttons, row(Button{
				Label:    rowVals[nameIdx],
				Callback: fmt.Sprintf("view_details;%d;%d", area, i),
			}))
		}
	}
	buttons = append(buttons, row(Button{Label: "⬅️ Kembali", Callback: fmt.Sprintf("view_desas;%d", area)}))
	return Reply{
		Text:    fmt.Sprintf("Properti di desa *%s*:", village),
		Buttons: buttons,
	}
}

// viewDetails renders one property and, when attributes are missing,
// runs enrichment and stages the candidates behind a confirm token.
func (r *Router) viewDetails(ctx context.Context, sessionID string, area, rowIdx int) Reply {
	partition, ok := r.partitionName(ctx, area)
	if !ok {
		return textReply(retryMessage)
	}

	headers, rows, err := r.store.ReadRows(ctx, partition)
	if err != nil || rowIdx < 0 || rowIdx >= len(rows) {
		r.logger.Error("Failed to fetch details",
			zap.String("partition", partition),
			zap.Int("row", rowIdx),
			zap.Error(err),
		)
		return textReply("Error: Gagal mengambil detail data.")
	}

	rec := models.NewRecord(partition, rowIdx+2, headers, rows[rowIdx])

	var b strings.Builder
	b.WriteString("✅ *Detail Properti*\n\n")
	for i, h := range headers {
		if i >= len(rows[rowIdx]) || rows[rowIdx][i] == "" {
			continue
		}
		value := rows[rowIdx][i]
		if h == models.AttrLocation {
			if addr, link, ok := splitMapsLink(value); ok {
				fmt.Fprintf(&b, "*%s*: %s\n[Lihat di Google Maps](%s)\n", h, addr, link)
				continue
			}
		}
		fmt.Fprintf(&b, "*%s*: %s\n", h, value)
	}

	backRow := row(Button{
		Label:    "⬅️ Kembali",
		Callback: fmt.Sprintf("view_villas;%d;%s", area, rec.Key.Village),
	})

	updates, ok := r.enricher.Propose(ctx, rec)
	if !ok {
		return Reply{Text: b.String(), Buttons: [][]Button{backRow}}
	}

	b.WriteString("\n💡 *Usulan pengisian data kosong*:\n")
	for _, attr := range sortedKeys(updates) {
		fmt.Fprintf(&b, "- *%s*: %s\n", attr, updates[attr])
	}

	token := proposal.NewToken()
	p := &proposal.Proposal{
		Token:     token,
		SessionID: sessionID,
		Key:       rec.Key,
		Updates:   updates,
		CreatedAt: time.Now(),
	}
	if err := r.proposals.Put(ctx, p); err != nil {
		r.logger.Error("Failed to stage proposal", zap.Error(err))
		return Reply{Text: b.String(), Buttons: [][]Button{backRow}}
	}

	return Reply{
		Text: b.String(),
		Buttons: [][]Button{
			row(Button{Label: "💾 Simpan usulan", Callback: "confirm_save;" + token}),
			row(Button{Label: "❌ Abaikan", Callback: "cancel_save;" + token}),
			backRow,
		},
	}
}

func (r *Router) partitionName(ctx context.Context, area int) (string, bool) {
	partitions, err := r.store.ListPartitions(ctx)
	if err != nil || area < 0 || area >= len(partitions) {
		r.logger.Warn("Invalid area index", zap.Int("area", area), zap.Error(err))
		return "", false
	}
	return partitions[area], true
}

// splitMapsLink splits a Location value of the form "address http…"
// into its address and link halves.
func splitMapsLink(value string) (addr, link string, ok bool) {
	idx := strings.Index(strings.ToLower(value), "http")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(value[:idx]), strings.TrimSpace(value[idx:]), true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
