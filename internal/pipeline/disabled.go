package pipeline

import (
	"context"

	"github.com/sells-group/confscout/internal/gateway"
	"github.com/sells-group/confscout/internal/model"
)

// DisabledScorer satisfies Scorer without any model calls: every company
// comes back Maybe/low so the full pipeline shape, including enrichment
// and rescoring, can be exercised offline.
type DisabledScorer struct {
	Size int
}

func (d DisabledScorer) BatchSize() int {
	if d.Size <= 0 {
		return 20
	}
	return d.Size
}

func (d DisabledScorer) Score(ctx context.Context, batch []model.CompanyCard, _ gateway.PromptKind) ([]model.ScoreResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.ScoreResult, 0, len(batch))
	for _, card := range batch {
		out = append(out, model.ScoreResult{
			CompanyName: card.CompanyName,
			Fit:         model.FitMaybe,
			Confidence:  model.ConfidenceLow,
			Rationale:   "Scoring disabled for this run.",
			Origin:      model.OriginFallback,
		})
	}
	return out, nil
}
