package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/confscout/internal/model"
)

func TestUpsert_MergesByNormalizedName(t *testing.T) {
	l := New()

	l.Upsert("Acme Corp", "https://conf.example/sponsors", 0)
	l.Upsert("ACME, Inc.", "https://conf.example/speakers", 2)

	require.Equal(t, 1, l.Len())
	rec, ok := l.Get("acme")
	require.True(t, ok)
	assert.Equal(t, "Acme Corp", rec.Name) // first spelling wins
	assert.Equal(t, 2, rec.SpeakerCount)
	assert.Len(t, rec.Sources, 2)
}

func TestUpsert_EmptyNameIgnored(t *testing.T) {
	l := New()
	assert.Nil(t, l.Upsert("  ", "https://x", 0))
	assert.Equal(t, 0, l.Len())
}

func TestCompanies_DiscoveryOrder(t *testing.T) {
	l := New()
	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		l.Upsert(name, "", 0)
	}

	got := l.Companies()
	require.Len(t, got, 3)
	assert.Equal(t, "Zeta", got[0].Name)
	assert.Equal(t, "Alpha", got[1].Name)
	assert.Equal(t, "Mid", got[2].Name)
}

func TestApplyScore_IncrementsRevision(t *testing.T) {
	l := New()
	l.Upsert("Siemens", "", 0)

	ok := l.ApplyScore(model.ScoreResult{
		CompanyName: "Siemens",
		Fit:         model.FitYes,
		Confidence:  model.ConfidenceHigh,
		Rationale:   "strong fit",
	})
	require.True(t, ok)

	rec, _ := l.Get("Siemens")
	assert.Equal(t, 1, rec.Revision)
	assert.Equal(t, model.FitYes, rec.Fit)

	ok = l.ApplyScore(model.ScoreResult{
		CompanyName: "Siemens",
		Fit:         model.FitMaybe,
		Confidence:  model.ConfidenceLow,
	})
	require.True(t, ok)
	rec, _ = l.Get("Siemens")
	assert.Equal(t, 2, rec.Revision)
}

func TestApplyScore_UnknownCompany(t *testing.T) {
	l := New()
	assert.False(t, l.ApplyScore(model.ScoreResult{CompanyName: "Ghost"}))
}

func TestUnscored(t *testing.T) {
	l := New()
	l.Upsert("A", "", 0)
	l.Upsert("B", "", 0)
	l.ApplyScore(model.ScoreResult{CompanyName: "A", Fit: model.FitNo, Confidence: model.ConfidenceHigh})

	unscored := l.Unscored()
	require.Len(t, unscored, 1)
	assert.Equal(t, "B", unscored[0].Name)
}

func TestAppendEvidence_DedupesOnURL(t *testing.T) {
	l := New()
	l.Upsert("Acme", "", 0)

	ev := model.Evidence{
		URL:     "https://conf.example/sponsors",
		Snippet: "Acme is a gold sponsor",
		Source:  model.SourceEnrichment,
	}
	assert.True(t, l.AppendEvidence("Acme", ev))
	assert.False(t, l.AppendEvidence("Acme", ev))

	rec, _ := l.Get("Acme")
	assert.Len(t, rec.Evidence, 1)

	// A different page appends fine.
	ev2 := ev
	ev2.URL = "https://conf.example/partners"
	assert.True(t, l.AppendEvidence("Acme", ev2))
	rec, _ = l.Get("Acme")
	assert.Len(t, rec.Evidence, 2)
}

func TestLogTransition_SequenceIncreases(t *testing.T) {
	l := New()
	t1 := l.LogTransition(model.StageIntake, model.StageInitialScoring, "%d companies", 4)
	t2 := l.LogTransition(model.StageInitialScoring, model.StageBorderline, "scored")

	assert.Equal(t, 1, t1.Seq)
	assert.Equal(t, 2, t2.Seq)
	assert.Equal(t, "4 companies", t1.Summary)

	log := l.Transitions()
	require.Len(t, log, 2)
	assert.Equal(t, model.StageIntake, log[0].From)
}

func TestNoteAnomaly(t *testing.T) {
	l := New()
	l.NoteAnomaly(model.StageInitialScoring, "Acme", "no result row in batch %d", 1)

	got := l.Anomalies()
	require.Len(t, got, 1)
	assert.Equal(t, "Acme", got[0].Company)
	assert.Contains(t, got[0].Message, "batch 1")
}
