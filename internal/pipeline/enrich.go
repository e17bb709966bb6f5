package pipeline

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/sells-group/confscout/internal/ledger"
	"github.com/sells-group/confscout/internal/model"
	"github.com/sells-group/confscout/internal/names"
)

// snippetRadius is how much surrounding page text a mention snippet keeps
// on each side; maxSnippetLen bounds the stored snippet.
const (
	snippetRadius  = 120
	maxSnippetLen  = 220
	minSearchedLen = 3
)

// Enrich scans the cached page texts for additional mentions of each
// borderline company and appends them as evidence. The search is
// case-insensitive and anchored on word boundaries, so "ABB" does not
// match inside "grabbed". No fetching happens here; only pages already
// held from intake are searched. Appending is idempotent per company and
// page, so rerunning enrichment cannot duplicate evidence. Returns how
// many companies gained at least one new snippet.
func Enrich(led *ledger.Ledger, borderline []*model.CompanyRecord) int {
	pages := led.Pages()
	if len(pages) == 0 || len(borderline) == 0 {
		return 0
	}

	enriched := 0
	for _, rec := range borderline {
		re := mentionPattern(rec.Name)
		if re == nil {
			continue
		}

		gained := false
		for _, page := range pages {
			loc := re.FindStringIndex(page.Text)
			if loc == nil {
				continue
			}
			ev := model.Evidence{
				URL:     page.URL,
				Snippet: mentionSnippet(page.Text, loc),
				Source:  model.SourceEnrichment,
			}
			if led.AppendEvidence(rec.Name, ev) {
				gained = true
			}
		}
		if gained {
			enriched++
		}
	}

	zap.L().Info("pipeline: enrichment complete",
		zap.Int("borderline", len(borderline)),
		zap.Int("enriched", enriched),
		zap.Int("pages_searched", len(pages)),
	)
	return enriched
}

// mentionPattern compiles the word-boundary search pattern for a company
// name. Very short names are skipped outright; they match too much to be
// usable evidence.
func mentionPattern(name string) *regexp.Regexp {
	cleaned := names.Clean(name)
	if len(cleaned) < minSearchedLen {
		return nil
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(cleaned) + `\b`)
	if err != nil {
		return nil
	}
	return re
}

// mentionSnippet cuts a bounded window of page text around a match.
func mentionSnippet(text string, loc []int) string {
	start := loc[0] - snippetRadius
	if start < 0 {
		start = 0
	}
	end := loc[1] + snippetRadius
	if end > len(text) {
		end = len(text)
	}
	return names.Compact(text[start:end], maxSnippetLen)
}
