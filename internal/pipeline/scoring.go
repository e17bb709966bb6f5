package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/confscout/internal/gateway"
	"github.com/sells-group/confscout/internal/ledger"
	"github.com/sells-group/confscout/internal/model"
	"github.com/sells-group/confscout/internal/names"
)

type scoreBatch struct {
	records []*model.CompanyRecord
	cards   []model.CompanyCard
}

// scoreRecords batches the given records in order and scores them through
// a bounded worker pool. Results are merged back sequentially in batch
// order, so ledger writes stay single-threaded. A batch whose scoring
// fails outright leaves its companies untouched and records one anomaly
// per company; companies silently missing from an otherwise valid
// response are likewise left untouched and flagged.
func (o *Orchestrator) scoreRecords(ctx context.Context, led *ledger.Ledger, records []*model.CompanyRecord, kind gateway.PromptKind) {
	if len(records) == 0 {
		return
	}
	stage := stageFor(kind)

	size := o.scorer.BatchSize()
	if size <= 0 {
		size = 20
	}
	var batches []scoreBatch
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		b := scoreBatch{records: records[start:end]}
		for _, rec := range b.records {
			b.cards = append(b.cards, rec.Card(o.cfg.MaxSnippets, o.cfg.MaxSources))
		}
		batches = append(batches, b)
	}
	zap.L().Info("pipeline: scoring pass starting",
		zap.String("kind", string(kind)),
		zap.Int("companies", len(records)),
		zap.Int("batches", len(batches)),
	)

	results := make([][]model.ScoreResult, len(batches))
	batchErrs := make([]error, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)
	for i, b := range batches {
		g.Go(func() error {
			res, err := o.scorer.Score(gctx, b.cards, kind)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				batchErrs[i] = err
				return nil
			}
			results[i] = res
			return nil
		})
	}
	// Scoring failures are per-batch anomalies, not run failures; only a
	// canceled context surfaces here and the merge below still applies
	// whatever completed.
	_ = g.Wait()

	applied, missing := 0, 0
	for i, b := range batches {
		if batchErrs[i] != nil {
			zap.L().Warn("pipeline: batch scoring unavailable",
				zap.String("kind", string(kind)),
				zap.Int("batch", i),
				zap.Int("companies", len(b.records)),
				zap.Error(batchErrs[i]),
			)
			for _, rec := range b.records {
				led.NoteAnomaly(stage, rec.Name, "scoring unavailable: %v", batchErrs[i])
			}
			continue
		}

		byKey := make(map[string]model.ScoreResult, len(results[i]))
		for _, res := range results[i] {
			byKey[names.Key(res.CompanyName)] = res
		}
		for _, rec := range b.records {
			res, ok := byKey[names.Key(rec.Name)]
			if !ok {
				missing++
				led.NoteAnomaly(stage, rec.Name, "company missing from scoring response")
				continue
			}
			led.ApplyScore(res)
			applied++
		}
	}

	counts := model.CountFits(led.Companies())
	zap.L().Info("pipeline: scoring pass complete",
		zap.String("kind", string(kind)),
		zap.Int("applied", applied),
		zap.Int("missing", missing),
		zap.Int("yes", counts[model.FitYes]),
		zap.Int("maybe", counts[model.FitMaybe]),
		zap.Int("no", counts[model.FitNo]),
	)
}

func stageFor(kind gateway.PromptKind) model.Stage {
	if kind == gateway.PromptRescore {
		return model.StageRescoring
	}
	return model.StageInitialScoring
}
