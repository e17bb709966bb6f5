package main

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/confscout/internal/export"
	"github.com/sells-group/confscout/internal/extract"
	"github.com/sells-group/confscout/internal/fetcher"
	"github.com/sells-group/confscout/internal/gateway"
	"github.com/sells-group/confscout/internal/ledger"
	"github.com/sells-group/confscout/internal/model"
	"github.com/sells-group/confscout/internal/pipeline"
	"github.com/sells-group/confscout/internal/store"
	anthropicpkg "github.com/sells-group/confscout/pkg/anthropic"
)

var (
	runURL            string
	runSlug           string
	runDisableScoring bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Qualify prospects from one conference site",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := executeRun(ctx, st, runURL, runSlug, runDisableScoring)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// executeRun is the full run flow shared by the run command and the
// serve endpoint: fetch, extract, orchestrate, export, persist.
func executeRun(ctx context.Context, st store.Store, seedURL, slug string, disableScoring bool) (*model.Run, error) {
	run, err := st.CreateRun(ctx, seedURL)
	if err != nil {
		return nil, eris.Wrap(err, "create run")
	}
	return processRun(ctx, st, run, slug, disableScoring)
}

// processRun drives an already-created run to completion, recording
// status transitions in the store along the way.
func processRun(ctx context.Context, st store.Store, run *model.Run, slug string, disableScoring bool) (*model.Run, error) {
	if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
		return nil, eris.Wrap(err, "mark run running")
	}

	result, led, runErr := qualify(ctx, run.ConferenceURL, slug, run.ID, disableScoring)
	if runErr != nil {
		if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusFailed); err != nil {
			zap.L().Error("mark run failed", zap.String("run_id", run.ID), zap.Error(err))
		}
		return nil, runErr
	}

	companies := make([]model.CompanyRecord, 0, led.Len())
	for _, rec := range led.Companies() {
		companies = append(companies, *rec)
	}
	if _, err := st.SaveSnapshot(ctx, run.ID, model.StageFinalize, companies); err != nil {
		zap.L().Warn("save final snapshot", zap.String("run_id", run.ID), zap.Error(err))
	}

	if err := st.UpdateRunResult(ctx, run.ID, result); err != nil {
		return nil, eris.Wrap(err, "save run result")
	}
	return st.GetRun(ctx, run.ID)
}

// qualify runs fetch, extraction, the pipeline, and export for one site.
func qualify(ctx context.Context, seedURL, slug, runID string, disableScoring bool) (*model.RunResult, *ledger.Ledger, error) {
	if slug == "" {
		slug = slugify(seedURL)
	}

	targets, err := fetcher.PlanTargets(seedURL, cfg.Fetch.TargetPaths)
	if err != nil {
		return nil, nil, err
	}
	pages, err := fetcher.New(cfg.Fetch).FetchAll(ctx, targets)
	if err != nil {
		return nil, nil, err
	}

	extracted := extract.FromPages(pages)

	scorer, err := buildScorer(disableScoring)
	if err != nil {
		return nil, nil, err
	}

	auditor, err := pipeline.NewAuditor(filepath.Join(cfg.Export.Dir, slug, runID))
	if err != nil {
		return nil, nil, err
	}

	led, result, err := pipeline.NewOrchestrator(scorer, cfg.Scoring, auditor).Run(ctx, extracted)
	if err != nil {
		return nil, nil, err
	}

	outPath, err := export.Workbook(cfg.Export.Dir, slug, led.Companies(), result)
	if err != nil {
		return nil, nil, err
	}
	result.OutputPath = outPath
	return result, led, nil
}

func buildScorer(disable bool) (pipeline.Scorer, error) {
	if disable || cfg.Scoring.Disabled {
		zap.L().Info("scoring disabled, using conservative defaults")
		return pipeline.DisabledScorer{Size: cfg.Scoring.BatchSize}, nil
	}
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic key is required (CONFSCOUT_ANTHROPIC_KEY), or pass --disable-scoring")
	}
	client := anthropicpkg.NewClient(cfg.Anthropic.Key)
	return gateway.New(client, cfg.Anthropic, cfg.Scoring), nil
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify derives an output file prefix from the conference URL host.
func slugify(rawURL string) string {
	u, err := url.Parse(rawURL)
	host := rawURL
	if err == nil && u.Host != "" {
		host = strings.TrimPrefix(u.Host, "www.")
	}
	s := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(host), "-"), "-")
	if s == "" {
		return "conference"
	}
	return s
}

func init() {
	runCmd.Flags().StringVar(&runURL, "url", "", "conference site URL (required)")
	runCmd.Flags().StringVar(&runSlug, "slug", "", "output file prefix (default derived from URL host)")
	runCmd.Flags().BoolVar(&runDisableScoring, "disable-scoring", false, "skip model calls; every company scores Maybe/low")
	_ = runCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(runCmd)
}
