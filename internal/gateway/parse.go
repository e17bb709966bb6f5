package gateway

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/confscout/internal/model"
	"github.com/sells-group/confscout/internal/names"
)

// maxRationaleLen bounds the free-text rationale carried on each record.
const maxRationaleLen = 220

// parseResults decodes the structured scoring response. Entries with an
// unrecognized fit or empty name are skipped; unknown confidence values
// are downgraded to low. Returns an error only when the response as a
// whole is not the expected structure.
func parseResults(text string) ([]model.ScoreResult, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return nil, eris.New("gateway: empty response text")
	}

	var body struct {
		Results []struct {
			CompanyName string `json:"company_name"`
			ICPFit      string `json:"icp_fit"`
			Confidence  string `json:"confidence"`
			Rationale   string `json:"rationale"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(cleaned), &body); err != nil {
		return nil, eris.Wrap(err, "gateway: unmarshal results")
	}
	if body.Results == nil {
		return nil, eris.New("gateway: response has no results field")
	}

	out := make([]model.ScoreResult, 0, len(body.Results))
	for _, r := range body.Results {
		name := strings.TrimSpace(r.CompanyName)
		if name == "" {
			continue
		}
		fit, ok := model.ParseFit(r.ICPFit)
		if !ok {
			zap.L().Warn("gateway: skipping result with invalid fit",
				zap.String("company", name),
				zap.String("icp_fit", r.ICPFit),
			)
			continue
		}
		out = append(out, model.ScoreResult{
			CompanyName: name,
			Fit:         fit,
			Confidence:  model.ParseConfidence(r.Confidence),
			Rationale:   names.Compact(r.Rationale, maxRationaleLen),
			Origin:      model.OriginParsed,
		})
	}
	return out, nil
}

// orderResults arranges parsed results to match the request batch order,
// keyed on normalized company names. Companies without a result row are
// omitted.
func orderResults(batch []model.CompanyCard, results []model.ScoreResult) []model.ScoreResult {
	byKey := make(map[string]model.ScoreResult, len(results))
	for _, r := range results {
		byKey[names.Key(r.CompanyName)] = r
	}

	out := make([]model.ScoreResult, 0, len(batch))
	for _, card := range batch {
		if r, ok := byKey[names.Key(card.CompanyName)]; ok {
			// Answer under the requested name so merge-back hits the
			// right ledger record even if the model restyled the name.
			r.CompanyName = card.CompanyName
			out = append(out, r)
		}
	}
	return out
}

// fallbackResults synthesizes conservative results for a batch whose
// response was not parseable: every company gets Maybe/low so it stays in
// the borderline pool instead of being fabricated a confident score.
func fallbackResults(batch []model.CompanyCard) []model.ScoreResult {
	out := make([]model.ScoreResult, 0, len(batch))
	for _, card := range batch {
		out = append(out, model.ScoreResult{
			CompanyName: card.CompanyName,
			Fit:         model.FitMaybe,
			Confidence:  model.ConfidenceLow,
			Rationale:   "Unparseable scoring response; conservative fallback.",
			Origin:      model.OriginFallback,
		})
	}
	return out
}

// cleanJSON extracts a JSON object from text that may contain markdown
// code fences or surrounding prose.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	} else {
		return ""
	}

	return strings.TrimSpace(text)
}
