package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/confscout/internal/config"
	"github.com/sells-group/confscout/internal/extract"
	"github.com/sells-group/confscout/internal/gateway"
	"github.com/sells-group/confscout/internal/model"
)

// mockScorer replays canned results keyed by company name and records
// every batch it receives.
type mockScorer struct {
	mu      sync.Mutex
	size    int
	initial map[string]model.ScoreResult
	rescore map[string]model.ScoreResult
	fail    map[gateway.PromptKind]error
	batches map[gateway.PromptKind][][]model.CompanyCard
}

func newMockScorer(size int) *mockScorer {
	return &mockScorer{
		size:    size,
		initial: make(map[string]model.ScoreResult),
		rescore: make(map[string]model.ScoreResult),
		fail:    make(map[gateway.PromptKind]error),
		batches: make(map[gateway.PromptKind][][]model.CompanyCard),
	}
}

func (m *mockScorer) BatchSize() int { return m.size }

func (m *mockScorer) Score(_ context.Context, batch []model.CompanyCard, kind gateway.PromptKind) ([]model.ScoreResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[kind] = append(m.batches[kind], batch)
	if err := m.fail[kind]; err != nil {
		return nil, err
	}
	table := m.initial
	if kind == gateway.PromptRescore {
		table = m.rescore
	}
	var out []model.ScoreResult
	for _, card := range batch {
		if res, ok := table[card.CompanyName]; ok {
			out = append(out, res)
		}
	}
	return out, nil
}

func (m *mockScorer) stub(kind gateway.PromptKind, name string, fit model.Fit, conf model.Confidence) {
	res := model.ScoreResult{
		CompanyName: name,
		Fit:         fit,
		Confidence:  conf,
		Rationale:   "stubbed",
		Origin:      model.OriginParsed,
	}
	if kind == gateway.PromptRescore {
		m.rescore[name] = res
	} else {
		m.initial[name] = res
	}
}

func conferenceExtraction() *extract.Result {
	return &extract.Result{
		Candidates: []extract.Candidate{
			{Name: "Siemens", Source: model.SourceLogo, Evidence: model.Evidence{
				URL: "https://conf.example.com/sponsors", Snippet: "Logo image src: Logos_01_siemens.png", Source: model.SourceLogo,
			}},
			{Name: "Acme Corp", Source: model.SourceLogo, Evidence: model.Evidence{
				URL: "https://conf.example.com/sponsors", Snippet: "Logo image src: Logos_02_acme corp.png", Source: model.SourceLogo,
			}},
			{Name: "StaffCo", Source: model.SourceSpeakers, Speakers: 1, Evidence: model.Evidence{
				URL: "https://conf.example.com/speakers", Snippet: "Speakers page company: StaffCo", Source: model.SourceSpeakers,
			}},
		},
		Pages: []model.RawPage{
			{URL: "https://conf.example.com/agenda", Type: model.PageTypeAgenda,
				Text: "Keynote: Acme Corp on predictive maintenance for field technicians"},
			{URL: "https://conf.example.com/sponsors", Type: model.PageTypeSponsors,
				Text: "Gold sponsors include Siemens and Acme Corp this year"},
		},
		SpeakerCount: 1,
	}
}

func TestRun_FullPipelineWithRescore(t *testing.T) {
	scorer := newMockScorer(20)
	scorer.stub(gateway.PromptInitialFit, "Siemens", model.FitYes, model.ConfidenceHigh)
	scorer.stub(gateway.PromptInitialFit, "Acme Corp", model.FitMaybe, model.ConfidenceLow)
	scorer.stub(gateway.PromptInitialFit, "StaffCo", model.FitNo, model.ConfidenceHigh)
	scorer.stub(gateway.PromptRescore, "Acme Corp", model.FitYes, model.ConfidenceMed)

	o := NewOrchestrator(scorer, config.ScoringConfig{Concurrency: 1}, nil)
	led, result, err := o.Run(context.Background(), conferenceExtraction())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Companies)
	assert.Equal(t, 1, result.Borderline)
	assert.Equal(t, 1, result.Enriched)
	assert.Equal(t, map[model.Fit]int{model.FitYes: 2, model.FitMaybe: 0, model.FitNo: 1}, result.FitCounts)

	// Rescoring ran over exactly the borderline subset.
	require.Len(t, scorer.batches[gateway.PromptRescore], 1)
	require.Len(t, scorer.batches[gateway.PromptRescore][0], 1)
	assert.Equal(t, "Acme Corp", scorer.batches[gateway.PromptRescore][0][0].CompanyName)

	// The rescored record carries the new result and a bumped revision.
	acme, ok := led.Get("Acme Corp")
	require.True(t, ok)
	assert.Equal(t, model.FitYes, acme.Fit)
	assert.Equal(t, model.ConfidenceMed, acme.Confidence)
	assert.Equal(t, 2, acme.Revision)

	// Enrichment appended page mentions from the held cache.
	var enrichmentEvidence int
	for _, ev := range acme.Evidence {
		if ev.Source == model.SourceEnrichment {
			enrichmentEvidence++
		}
	}
	assert.Equal(t, 2, enrichmentEvidence)

	// Non-borderline records went through scoring exactly once.
	siemens, _ := led.Get("Siemens")
	assert.Equal(t, 1, siemens.Revision)
	assert.Equal(t, model.FitYes, siemens.Fit)

	wantStages := [][2]model.Stage{
		{model.StageIntake, model.StageInitialScoring},
		{model.StageInitialScoring, model.StageBorderline},
		{model.StageBorderline, model.StageEnrichment},
		{model.StageEnrichment, model.StageRescoring},
		{model.StageRescoring, model.StageFinalize},
	}
	transitions := result.Transitions
	require.Len(t, transitions, len(wantStages))
	for i, tr := range transitions {
		assert.Equal(t, i+1, tr.Seq)
		assert.Equal(t, wantStages[i][0], tr.From, "transition %d", i)
		assert.Equal(t, wantStages[i][1], tr.To, "transition %d", i)
		assert.NotEmpty(t, tr.Summary)
	}
	assert.Empty(t, result.Anomalies)
}

func TestRun_NoBorderlineSkipsSegment(t *testing.T) {
	scorer := newMockScorer(20)
	scorer.stub(gateway.PromptInitialFit, "Siemens", model.FitYes, model.ConfidenceHigh)
	scorer.stub(gateway.PromptInitialFit, "Acme Corp", model.FitYes, model.ConfidenceMed)
	scorer.stub(gateway.PromptInitialFit, "StaffCo", model.FitNo, model.ConfidenceHigh)

	o := NewOrchestrator(scorer, config.ScoringConfig{Concurrency: 1}, nil)
	_, result, err := o.Run(context.Background(), conferenceExtraction())
	require.NoError(t, err)

	assert.Zero(t, result.Borderline)
	assert.Zero(t, result.Enriched)
	assert.Empty(t, scorer.batches[gateway.PromptRescore])

	last := result.Transitions[len(result.Transitions)-1]
	assert.Equal(t, model.StageBorderline, last.From)
	assert.Equal(t, model.StageFinalize, last.To)
}

func TestRun_EmptyIntakeStillFinalizes(t *testing.T) {
	scorer := newMockScorer(20)
	o := NewOrchestrator(scorer, config.ScoringConfig{}, nil)

	_, result, err := o.Run(context.Background(), &extract.Result{})
	require.NoError(t, err)

	assert.Zero(t, result.Companies)
	assert.Empty(t, scorer.batches[gateway.PromptInitialFit])
	require.NotEmpty(t, result.Anomalies)
	assert.Equal(t, model.StageIntake, result.Anomalies[0].Stage)

	last := result.Transitions[len(result.Transitions)-1]
	assert.Equal(t, model.StageFinalize, last.To)
}

func TestRun_ScoringUnavailableDegradesToAnomalies(t *testing.T) {
	scorer := newMockScorer(20)
	scorer.fail[gateway.PromptInitialFit] = &gateway.ScoringUnavailableError{
		Kind: gateway.PromptInitialFit,
		Err:  eris.New("retry budget exhausted"),
	}

	o := NewOrchestrator(scorer, config.ScoringConfig{Concurrency: 1}, nil)
	led, result, err := o.Run(context.Background(), conferenceExtraction())
	require.NoError(t, err)

	// Every company stays unscored, one anomaly each, and the run still
	// reaches finalize with the enrichment segment skipped.
	for _, rec := range led.Companies() {
		assert.False(t, rec.Scored(), rec.Name)
		assert.Zero(t, rec.Revision, rec.Name)
	}
	assert.Len(t, result.Anomalies, 3)
	assert.Zero(t, result.Borderline)
	last := result.Transitions[len(result.Transitions)-1]
	assert.Equal(t, model.StageFinalize, last.To)
}

func TestRun_MissingCompanyLeftUnsetWithAnomaly(t *testing.T) {
	scorer := newMockScorer(20)
	scorer.stub(gateway.PromptInitialFit, "Siemens", model.FitYes, model.ConfidenceHigh)
	scorer.stub(gateway.PromptInitialFit, "StaffCo", model.FitNo, model.ConfidenceHigh)
	// Acme Corp intentionally absent from the response.

	o := NewOrchestrator(scorer, config.ScoringConfig{Concurrency: 1}, nil)
	led, result, err := o.Run(context.Background(), conferenceExtraction())
	require.NoError(t, err)

	acme, _ := led.Get("Acme Corp")
	assert.False(t, acme.Scored())
	assert.Zero(t, acme.Revision)

	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, "Acme Corp", result.Anomalies[0].Company)
	assert.Equal(t, model.StageInitialScoring, result.Anomalies[0].Stage)

	siemens, _ := led.Get("Siemens")
	assert.True(t, siemens.Scored())
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(newMockScorer(20), config.ScoringConfig{}, nil)
	_, _, err := o.Run(ctx, conferenceExtraction())
	assert.Error(t, err)
}

func TestScoreRecords_BatchesInEncounterOrder(t *testing.T) {
	scorer := newMockScorer(20)
	res := &extract.Result{}
	for i := 0; i < 45; i++ {
		name := "Company " + string(rune('A'+i%26)) + string(rune('A'+i/26))
		res.Candidates = append(res.Candidates, extract.Candidate{
			Name:   name,
			Source: model.SourceLogo,
			Evidence: model.Evidence{
				URL: "https://conf.example.com/", Snippet: "logo", Source: model.SourceLogo,
			},
		})
		scorer.stub(gateway.PromptInitialFit, name, model.FitNo, model.ConfidenceHigh)
	}

	o := NewOrchestrator(scorer, config.ScoringConfig{Concurrency: 2}, nil)
	led, _, err := o.Run(context.Background(), res)
	require.NoError(t, err)
	require.Equal(t, 45, led.Len())

	batches := scorer.batches[gateway.PromptInitialFit]
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 20)
	assert.Len(t, batches[1], 20)
	assert.Len(t, batches[2], 5)

	// Batches cover the ledger in discovery order.
	var got []string
	for _, b := range batches {
		for _, card := range b {
			got = append(got, card.CompanyName)
		}
	}
	var want []string
	for _, rec := range led.Companies() {
		want = append(want, rec.Name)
	}
	assert.Equal(t, want, got)
}

func TestSelectBorderline(t *testing.T) {
	records := []*model.CompanyRecord{
		{Name: "a", Fit: model.FitYes},
		{Name: "b", Fit: model.FitMaybe, Confidence: model.ConfidenceHigh},
		{Name: "c", Fit: model.FitNo},
		{Name: "d", Fit: model.FitMaybe, Confidence: model.ConfidenceLow},
		{Name: "e"}, // unscored
	}
	got := SelectBorderline(records)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Name)
	assert.Equal(t, "d", got[1].Name)
}

func TestRun_DisabledScorer(t *testing.T) {
	o := NewOrchestrator(DisabledScorer{}, config.ScoringConfig{Concurrency: 1}, nil)
	led, result, err := o.Run(context.Background(), conferenceExtraction())
	require.NoError(t, err)

	// Everything is conservatively Maybe/low, so the whole population is
	// borderline and goes through enrichment and rescoring once.
	assert.Equal(t, 3, result.Borderline)
	for _, rec := range led.Companies() {
		assert.Equal(t, model.FitMaybe, rec.Fit)
		assert.Equal(t, model.ConfidenceLow, rec.Confidence)
		assert.Equal(t, 2, rec.Revision)
	}
}
