package agent

import (
	"context"

	"github.com/balitek/villabot/internal/llm"
	"github.com/balitek/villabot/internal/search"
)

// Tool names exposed to the generative backend. The set is fixed; the
// model can request no other lookup.
const (
	ToolPlaces     = "search_google_maps"
	ToolWeb        = "search_the_web"
	ToolTraveloka  = "search_traveloka"
	ToolAgoda      = "search_agoda"
	ToolTiketcom   = "search_tiketcom"
	ToolBookingcom = "search_bookingcom"
)

// scopedDomains maps site-scoped tools to the domain their query is
// constrained to.
var scopedDomains = map[string]string{
	ToolTraveloka:  "traveloka.com",
	ToolAgoda:      "agoda.com",
	ToolTiketcom:   "tiket.com",
	ToolBookingcom: "booking.com",
}

// Declarations returns the tool declarations sent to the backend. Each
// tool takes a single required string parameter "query".
func Declarations() []llm.Tool {
	return []llm.Tool{
		{
			Name:        ToolPlaces,
			Description: "Gunakan ini SEBAGAI PRIORITAS untuk mencari info kontak, nomor telepon, alamat, atau website resmi. Query: nama properti dan lokasinya, contoh 'Villa Damai Sidemen'.",
		},
		{
			Name:        ToolWeb,
			Description: "Gunakan ini untuk mencari informasi subjektif seperti ulasan pelanggan dari Agoda, Booking.com, dll.",
		},
		{
			Name:        ToolTraveloka,
			Description: "Gunakan ini untuk mencari informasi dari Traveloka seperti review, contact, jumlah kamar.",
		},
		{
			Name:        ToolAgoda,
			Description: "Gunakan ini untuk mencari informasi dari Agoda seperti review, harga, dan fasilitas.",
		},
		{
			Name:        ToolTiketcom,
			Description: "Gunakan ini untuk mencari informasi dari Tiket.com seperti review dan harga.",
		},
		{
			Name:        ToolBookingcom,
			Description: "Gunakan ini untuk mencari informasi dari Booking.com seperti review dan fasilitas.",
		},
	}
}

// dispatch runs one tool call against the gateway. ok is false for
// unknown tool names; the returned result may be degraded.
func (a *Agent) dispatch(ctx context.Context, call llm.ToolCall) (search.Result, bool) {
	switch call.Name {
	case ToolPlaces:
		return a.gateway.Places(ctx, call.Query), true
	case ToolWeb:
		return a.gateway.Web(ctx, call.Query), true
	default:
		if domain, ok := scopedDomains[call.Name]; ok {
			return a.gateway.Scoped(ctx, domain, call.Query), true
		}
		return search.Result{}, false
	}
}
