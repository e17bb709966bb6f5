// Package pipeline runs the qualification pipeline: intake of extracted
// company candidates, batch scoring through the rate-limited gateway,
// borderline selection, evidence enrichment from the held page cache, and
// a single rescoring pass, surrounded by audit snapshots.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/confscout/internal/config"
	"github.com/sells-group/confscout/internal/extract"
	"github.com/sells-group/confscout/internal/gateway"
	"github.com/sells-group/confscout/internal/ledger"
	"github.com/sells-group/confscout/internal/model"
)

// Scorer is the scoring surface the pipeline depends on. The gateway is
// the production implementation; a disabled scorer stands in for dry runs.
type Scorer interface {
	Score(ctx context.Context, batch []model.CompanyCard, kind gateway.PromptKind) ([]model.ScoreResult, error)
	BatchSize() int
}

// Orchestrator drives one run through the fixed stage sequence. The
// sequence is linear and always terminates at finalize; the enrichment
// and rescoring segment runs at most once, and only when borderline
// companies exist.
type Orchestrator struct {
	scorer Scorer
	cfg    config.ScoringConfig
	audit  *Auditor // nil disables snapshots
}

// NewOrchestrator wires a pipeline around a scorer. audit may be nil.
func NewOrchestrator(scorer Scorer, cfg config.ScoringConfig, audit *Auditor) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.MaxSnippets <= 0 {
		cfg.MaxSnippets = 3
	}
	if cfg.MaxSources <= 0 {
		cfg.MaxSources = 5
	}
	return &Orchestrator{scorer: scorer, cfg: cfg, audit: audit}
}

// Run executes the full stage sequence over the extraction result and
// returns the populated ledger plus the run summary. Only context
// cancellation aborts a run; scoring failures degrade to anomalies and
// the run still reaches finalize.
func (o *Orchestrator) Run(ctx context.Context, extracted *extract.Result) (*ledger.Ledger, *model.RunResult, error) {
	led := ledger.New()

	Intake(led, extracted)
	if led.Len() == 0 {
		led.NoteAnomaly(model.StageIntake, "", "no companies extracted from any page")
	}
	led.LogTransition(model.StageIntake, model.StageInitialScoring,
		"intake complete: %d companies, %d pages cached", led.Len(), len(led.Pages()))
	o.snapshot(led, model.StageIntake)

	if err := ctx.Err(); err != nil {
		return led, nil, eris.Wrap(err, "pipeline: canceled before initial scoring")
	}

	o.scoreRecords(ctx, led, led.Unscored(), gateway.PromptInitialFit)
	counts := model.CountFits(led.Companies())
	led.LogTransition(model.StageInitialScoring, model.StageBorderline,
		"initial scoring complete: %d yes, %d maybe, %d no",
		counts[model.FitYes], counts[model.FitMaybe], counts[model.FitNo])
	o.snapshot(led, model.StageInitialScoring)

	if err := ctx.Err(); err != nil {
		return led, nil, eris.Wrap(err, "pipeline: canceled before borderline selection")
	}

	borderline := SelectBorderline(led.Companies())
	enriched := 0
	if len(borderline) > 0 {
		led.LogTransition(model.StageBorderline, model.StageEnrichment,
			"%d borderline companies selected for enrichment", len(borderline))

		if err := ctx.Err(); err != nil {
			return led, nil, eris.Wrap(err, "pipeline: canceled before enrichment")
		}
		enriched = Enrich(led, borderline)
		led.LogTransition(model.StageEnrichment, model.StageRescoring,
			"enrichment complete: %d of %d companies gained evidence", enriched, len(borderline))

		if err := ctx.Err(); err != nil {
			return led, nil, eris.Wrap(err, "pipeline: canceled before rescoring")
		}
		o.scoreRecords(ctx, led, borderline, gateway.PromptRescore)
		counts = model.CountFits(led.Companies())
		led.LogTransition(model.StageRescoring, model.StageFinalize,
			"rescoring complete: %d yes, %d maybe, %d no",
			counts[model.FitYes], counts[model.FitMaybe], counts[model.FitNo])
		o.snapshot(led, model.StageRescoring)
	} else {
		led.LogTransition(model.StageBorderline, model.StageFinalize,
			"no borderline companies, skipping enrichment and rescoring")
	}

	result := &model.RunResult{
		Companies:   led.Len(),
		FitCounts:   model.CountFits(led.Companies()),
		Borderline:  len(borderline),
		Enriched:    enriched,
		Transitions: led.Transitions(),
		Anomalies:   led.Anomalies(),
	}
	zap.L().Info("pipeline: run finalized",
		zap.Int("companies", result.Companies),
		zap.Int("borderline", result.Borderline),
		zap.Int("enriched", result.Enriched),
		zap.Int("anomalies", len(result.Anomalies)),
	)
	return led, result, nil
}

func (o *Orchestrator) snapshot(led *ledger.Ledger, stage model.Stage) {
	if o.audit == nil {
		return
	}
	path, err := o.audit.Snapshot(stage, led)
	if err != nil {
		zap.L().Warn("pipeline: audit snapshot failed",
			zap.String("stage", string(stage)),
			zap.Error(err),
		)
		led.NoteAnomaly(stage, "", "audit snapshot failed: %v", err)
		return
	}
	zap.L().Info("pipeline: audit snapshot written",
		zap.String("stage", string(stage)),
		zap.String("path", path),
	)
}
