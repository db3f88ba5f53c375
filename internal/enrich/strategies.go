package enrich

import (
	"context"
	"regexp"
	"strings"

	"github.com/balitek/villabot/internal/models"
	"github.com/balitek/villabot/internal/reviews"
)

var (
	roomCountRe   = regexp.MustCompile(`(?i)(\d{1,3})\s*(kamar|rooms|room)`)
	yearBuiltRe   = regexp.MustCompile(`(19\d{2}|20\d{2})`)
	subdistrictRe = regexp.MustCompile(`(?i)Kecamatan\s+([^,]+)|Kec\.?\s*([^,]+)`)
	numericRe     = regexp.MustCompile(`^\d+$`)
)

// propertyTypes is the closed set recognized for the Jenis attribute,
// in match-priority order.
var propertyTypes = []string{"Villa", "Hotel", "Resort", "Guesthouse", "Homestay", "Hostel"}

// contactPerson prefers the phone field of the place record, falling
// back to the first 300 chars of the rendered place summary.
func (r *run) contactPerson(ctx context.Context, rec models.Record) string {
	res := r.places(ctx)
	if res.IsDegraded() {
		return ""
	}
	if res.Place != nil && strings.TrimSpace(res.Place.Phone) != "" {
		return strings.TrimSpace(res.Place.Phone)
	}
	return truncate(res.Text(), 300)
}

// roomCount extracts the first 1-3 digit integer adjacent to a room
// word; non-numeric fallback is the cleaned snippet capped at 500.
func (r *run) roomCount(ctx context.Context, rec models.Record) string {
	res := r.engine.gateway.Web(ctx, r.base+" jumlah kamar OR number of rooms OR room count")
	if res.IsDegraded() {
		return ""
	}
	text := res.Text()
	if m := roomCountRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if v := reviews.CleanSnippet(text); v != "" && !numericRe.MatchString(v) {
		return truncate(v, 500)
	}
	return ""
}

// location takes the place address verbatim.
func (r *run) location(ctx context.Context, rec models.Record) string {
	res := r.places(ctx)
	if res.IsDegraded() || res.Place == nil {
		return ""
	}
	return strings.TrimSpace(res.Place.Address)
}

// yearBuilt anchors on the first 19xx/20xx token; no range check beyond
// the pattern.
func (r *run) yearBuilt(ctx context.Context, rec models.Record) string {
	res := r.engine.gateway.Web(ctx, r.base+" tahun dibangun OR tahun terbangun OR built in year")
	if res.IsDegraded() {
		return ""
	}
	if m := yearBuiltRe.FindString(res.Text()); m != "" {
		return m
	}
	return ""
}

// subdistrict pulls the token following "Kecamatan"/"Kec." from the
// place address, up to the next comma.
func (r *run) subdistrict(ctx context.Context, rec models.Record) string {
	res := r.places(ctx)
	if res.IsDegraded() || res.Place == nil {
		return ""
	}
	m := subdistrictRe.FindStringSubmatch(res.Place.Address)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(m[2])
}

// propertyType matches the type keyword set against the record name
// first, then the place summary text.
func (r *run) propertyType(ctx context.Context, rec models.Record) string {
	name := rec.Key.Name
	for _, t := range propertyTypes {
		if containsWord(name, t) {
			return t
		}
	}
	res := r.places(ctx)
	if res.IsDegraded() {
		return ""
	}
	text := strings.ToLower(res.Text())
	for _, t := range []string{"Villa", "Hotel", "Resort"} {
		if strings.Contains(text, strings.ToLower(t)) {
			return t
		}
	}
	return ""
}

// itReviewSummary filters connectivity sentences out of a broad web
// search, summarizes them, and keeps the first 3 sentences.
func (r *run) itReviewSummary(ctx context.Context, rec models.Record) string {
	res := r.engine.gateway.Web(ctx, r.base+itReviewSuffix)
	if res.IsDegraded() {
		return ""
	}
	filtered := reviews.Filter(res.Text())
	if filtered == "" {
		return ""
	}
	refined := r.engine.summarizer.Summarize(ctx, filtered)
	return reviews.FirstSentences(refined, 3)
}

func containsWord(s, word string) bool {
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	return re.MatchString(s)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(runes[:n]))
}
