package search

import (
	"fmt"
	"strings"
)

// Engine identifies a search backend.
type Engine string

const (
	EngineWeb    Engine = "web"
	EnginePlaces Engine = "places"
)

// Place is the top-ranked place record from a places search.
// Every field is optional; absent fields are zero values.
type Place struct {
	Title   string  `json:"title"`
	Address string  `json:"address"`
	Phone   string  `json:"phone"`
	Website string  `json:"website"`
	Rating  float64 `json:"rating"`
	Reviews int     `json:"reviews"`
}

// Result is the total outcome of a gateway call: either snippets (web),
// a place record (places), or a degraded sentinel. Immutable once
// returned.
type Result struct {
	Engine   Engine
	Snippets []string
	Place    *Place
	Reason   string // non-empty means degraded
}

// Degraded builds the sentinel "no information found" result.
func Degraded(engine Engine, reason string) Result {
	return Result{Engine: engine, Reason: reason}
}

// IsDegraded reports whether the call yielded no usable information.
func (r Result) IsDegraded() bool {
	return r.Reason != ""
}

// Text renders the result for prompt or message consumption.
func (r Result) Text() string {
	if r.IsDegraded() {
		switch r.Engine {
		case EnginePlaces:
			return "Tidak ada informasi ditemukan di pencarian tempat."
		default:
			return "Tidak ada hasil pencarian web yang relevan."
		}
	}
	if r.Place != nil {
		p := r.Place
		lines := []string{
			fmt.Sprintf("Nama: %s", orNA(p.Title)),
			fmt.Sprintf("Alamat: %s", orNA(p.Address)),
			fmt.Sprintf("Telepon: %s", orNA(p.Phone)),
			fmt.Sprintf("Website: %s", orNA(p.Website)),
			fmt.Sprintf("Rating: %s (%d ulasan)", ratingOrNA(p.Rating), p.Reviews),
		}
		return strings.Join(lines, "\n")
	}
	return strings.Join(r.Snippets, "\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func ratingOrNA(r float64) string {
	if r == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", r)
}

// ScopedQuery rewrites query to constrain results to one external
// domain. Exactly one site: token is prepended; the original text is
// untouched.
func ScopedQuery(domain, query string) string {
	return fmt.Sprintf("site:%s %s", domain, query)
}
