// Package reviews filters free text down to connectivity-related
// sentences and optionally condenses them with the generative backend.
package reviews

import (
	"regexp"
	"strings"
)

// Connectivity keyword patterns, Indonesian and English. A sentence
// survives the filter if any pattern matches it.
var keywordPatterns = compileAll([]string{
	// Indonesian
	`wifi`, `wi-?fi`, `internet`, `jaringan`, `bandwidth`, `kecepatan`, `koneksi`,
	`fiber`, `sinyal`, `router`, `modem`, `\bIT\b`, `telekomunikasi`, `hotspot`,
	`lambat`, `kencang`, `stabil`, `putus`, `zoom`, `video call`, `Mbps|MB/s`,
	// English
	`network`, `connection`, `connectivity`, `signal`, `latency`, `ping`,
	`\bfast\b`, `\bslow\b`, `stable`, `unstable`, `drop(s|ped)?`, `stream(ing)?`,
	`video\s*call`, `work from home`, `remote work`, `digital nomad`,
	`fibre|fiber|ethernet|broadband|wi[-\s]?fi`, `4G|5G|LTE`,
})

var (
	sentenceSplit = regexp.MustCompile(`(?:[.!?])\s+`)
	sentenceEnd   = regexp.MustCompile(`[.!?]\s*$`)
	ellipsisRun   = regexp.MustCompile(`\.{3,}|…`)
	spaceRun      = regexp.MustCompile(`\s+`)
)

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}

// Filter keeps only sentences mentioning connectivity terms. Idempotent:
// surviving sentences re-match themselves on a second pass.
func Filter(text string) string {
	if text == "" {
		return ""
	}
	var kept []string
	for _, s := range splitSentences(text) {
		for _, re := range keywordPatterns {
			if re.MatchString(s) {
				kept = append(kept, s)
				break
			}
		}
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

// CleanSnippet collapses ellipsis runs and whitespace so truncated
// provider snippets read as continuous text.
func CleanSnippet(text string) string {
	if text == "" {
		return ""
	}
	cleaned := ellipsisRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(spaceRun.ReplaceAllString(cleaned, " "))
}

// FirstSentences returns at most n leading sentences of s.
func FirstSentences(s string, n int) string {
	sents := splitSentences(s)
	if len(sents) > n {
		sents = sents[:n]
	}
	return strings.Join(sents, " ")
}

// splitSentences splits on sentence-ending punctuation, keeping the
// punctuation attached to its sentence.
func splitSentences(text string) []string {
	var out []string
	rest := text
	for {
		loc := sentenceSplit.FindStringIndex(rest)
		if loc == nil {
			break
		}
		// End of sentence includes the punctuation, not the trailing space.
		end := loc[0] + 1
		out = append(out, strings.TrimSpace(rest[:end]))
		rest = rest[loc[1]:]
	}
	if s := strings.TrimSpace(rest); s != "" {
		out = append(out, s)
	}
	return out
}
