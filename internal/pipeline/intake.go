package pipeline

import (
	"go.uber.org/zap"

	"github.com/sells-group/confscout/internal/extract"
	"github.com/sells-group/confscout/internal/ledger"
)

// Intake folds extraction candidates into the ledger, merging repeat
// sightings of the same company by normalized name, and caches the
// plaintext pages for later enrichment. An empty extraction result is a
// valid empty intake, not an error.
func Intake(led *ledger.Ledger, extracted *extract.Result) {
	if extracted == nil {
		return
	}
	for _, c := range extracted.Candidates {
		led.Upsert(c.Name, c.Evidence.URL, c.Speakers, c.Evidence)
	}
	for _, p := range extracted.Pages {
		led.AddPage(p)
	}
	zap.L().Info("pipeline: intake merged",
		zap.Int("sightings", len(extracted.Candidates)),
		zap.Int("companies", led.Len()),
		zap.Int("pages", len(extracted.Pages)),
		zap.Int("speakers", extracted.SpeakerCount),
	)
}
