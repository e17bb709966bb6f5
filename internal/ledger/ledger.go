// Package ledger holds the in-memory evidence store for a single
// qualification run: company records, raw page cache, and the append-only
// conversation log. It is the single source of truth read and written by
// every pipeline stage.
//
// The ledger is written only by the stage the orchestrator is currently
// running, so its methods do no locking. Raw pages are read-only after
// intake and safe for unsynchronized concurrent reads.
package ledger

import (
	"fmt"

	"github.com/sells-group/confscout/internal/model"
	"github.com/sells-group/confscout/internal/names"
)

// Ledger is the mutable per-run state aggregate.
type Ledger struct {
	records map[string]*model.CompanyRecord // keyed by names.Key
	order   []string                        // discovery order of keys
	pages   []model.RawPage

	transitions []model.Transition
	anomalies   []model.Anomaly
	seq         int
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		records: make(map[string]*model.CompanyRecord),
	}
}

// Upsert merges a candidate company into the ledger. New names create a
// record; known names accumulate sources, evidence and speaker counts.
// Returns the canonical record, or nil when the name normalizes to nothing.
func (l *Ledger) Upsert(name string, source string, speakerCount int, evidence ...model.Evidence) *model.CompanyRecord {
	key := names.Key(name)
	if key == "" {
		return nil
	}

	rec, ok := l.records[key]
	if !ok {
		rec = &model.CompanyRecord{Name: names.Clean(name)}
		l.records[key] = rec
		l.order = append(l.order, key)
	}

	if source != "" && !containsString(rec.Sources, source) {
		rec.Sources = append(rec.Sources, source)
	}
	rec.SpeakerCount += speakerCount
	rec.Evidence = append(rec.Evidence, evidence...)
	return rec
}

// Get returns the record for a company name, resolved through the same
// normalization intake uses.
func (l *Ledger) Get(name string) (*model.CompanyRecord, bool) {
	rec, ok := l.records[names.Key(name)]
	return rec, ok
}

// Companies returns all records in discovery order.
func (l *Ledger) Companies() []*model.CompanyRecord {
	out := make([]*model.CompanyRecord, 0, len(l.order))
	for _, key := range l.order {
		out = append(out, l.records[key])
	}
	return out
}

// Unscored returns the records that have no fit classification yet,
// preserving discovery order.
func (l *Ledger) Unscored() []*model.CompanyRecord {
	var out []*model.CompanyRecord
	for _, key := range l.order {
		if rec := l.records[key]; !rec.Scored() {
			out = append(out, rec)
		}
	}
	return out
}

// Len reports the number of company records.
func (l *Ledger) Len() int {
	return len(l.order)
}

// ApplyScore overwrites a record's fit, confidence and rationale and
// increments its revision counter. Returns false when the company is
// unknown to the ledger.
func (l *Ledger) ApplyScore(res model.ScoreResult) bool {
	rec, ok := l.records[names.Key(res.CompanyName)]
	if !ok {
		return false
	}
	rec.Fit = res.Fit
	rec.Confidence = res.Confidence
	rec.Rationale = res.Rationale
	rec.Revision++
	return true
}

// AppendEvidence appends one evidence item to a record, deduplicating on
// (company, source URL) so re-running enrichment over the same pages is
// idempotent. Returns true when the item was appended.
func (l *Ledger) AppendEvidence(name string, ev model.Evidence) bool {
	rec, ok := l.records[names.Key(name)]
	if !ok {
		return false
	}
	for _, existing := range rec.Evidence {
		if existing.URL == ev.URL && existing.Source == ev.Source {
			return false
		}
	}
	rec.Evidence = append(rec.Evidence, ev)
	return true
}

// AddPage appends a fetched page to the raw page collection.
func (l *Ledger) AddPage(p model.RawPage) {
	l.pages = append(l.pages, p)
}

// Pages returns the raw page collection. Callers must treat it as
// read-only.
func (l *Ledger) Pages() []model.RawPage {
	return l.pages
}

// LogTransition appends one conversation-log entry with the next sequence
// number and returns it.
func (l *Ledger) LogTransition(from, to model.Stage, format string, args ...any) model.Transition {
	l.seq++
	t := model.Transition{
		Seq:     l.seq,
		From:    from,
		To:      to,
		Summary: fmt.Sprintf(format, args...),
	}
	l.transitions = append(l.transitions, t)
	return t
}

// Transitions returns a copy of the conversation log.
func (l *Ledger) Transitions() []model.Transition {
	out := make([]model.Transition, len(l.transitions))
	copy(out, l.transitions)
	return out
}

// NoteAnomaly records a recoverable oddity for the audit trail.
func (l *Ledger) NoteAnomaly(stage model.Stage, company, format string, args ...any) {
	l.anomalies = append(l.anomalies, model.Anomaly{
		Stage:   stage,
		Company: company,
		Message: fmt.Sprintf(format, args...),
	})
}

// Anomalies returns a copy of the recorded anomalies.
func (l *Ledger) Anomalies() []model.Anomaly {
	out := make([]model.Anomaly, len(l.anomalies))
	copy(out, l.anomalies)
	return out
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
