package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/confscout/internal/ledger"
	"github.com/sells-group/confscout/internal/model"
)

// auditColumns defines the ordered audit snapshot columns.
var auditColumns = []string{
	"Company",
	"Fit",
	"Confidence",
	"Speaker Count",
	"Sources",
	"Evidence Count",
	"Revision",
	"Rationale",
}

// Auditor writes per-stage CSV snapshots of the ledger into a run
// directory, numbered in the order they were taken.
type Auditor struct {
	dir string
	seq int
}

// NewAuditor creates the snapshot directory if needed.
func NewAuditor(dir string) (*Auditor, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "audit: create dir")
	}
	return &Auditor{dir: dir}, nil
}

// Snapshot dumps the ledger after the named stage, companies in
// discovery order, and returns the written path.
func (a *Auditor) Snapshot(stage model.Stage, led *ledger.Ledger) (string, error) {
	a.seq++
	path := filepath.Join(a.dir, fmt.Sprintf("audit_%02d_%s.csv", a.seq, stage))

	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "audit: create file")
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write(auditColumns); err != nil {
		return "", eris.Wrap(err, "audit: write header")
	}
	for _, rec := range led.Companies() {
		if err := w.Write(auditRow(rec)); err != nil {
			return "", eris.Wrapf(err, "audit: write row for %s", rec.Name)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", eris.Wrap(err, "audit: flush")
	}
	return path, nil
}

func auditRow(rec *model.CompanyRecord) []string {
	return []string{
		rec.Name,
		string(rec.Fit),
		string(rec.Confidence),
		strconv.Itoa(rec.SpeakerCount),
		strings.Join(rec.Sources, "; "),
		strconv.Itoa(len(rec.Evidence)),
		strconv.Itoa(rec.Revision),
		rec.Rationale,
	}
}
