// Package export writes the final run workbook: a companies sheet sorted
// by fit then name, and a conversation-log sheet with every stage
// transition and anomaly from the run.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/confscout/internal/model"
)

const (
	companiesSheet = "Companies"
	logSheet       = "Conversation Log"

	maxCellLen     = 3000
	evidenceSample = 3
)

var companyColumns = []string{
	"company_name",
	"icp_fit",
	"confidence",
	"rationale",
	"speakers_count",
	"sources",
	"evidence_sample",
	"revision",
}

// fitOrder sorts classified fits ahead of unscored records.
var fitOrder = map[model.Fit]int{
	model.FitYes:   0,
	model.FitMaybe: 1,
	model.FitNo:    2,
	model.FitUnset: 3,
}

// Workbook writes the xlsx artifact for a finished run and returns its
// path. The input records are not mutated; sorting happens on a copy.
func Workbook(dir, slug string, records []*model.CompanyRecord, result *model.RunResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrap(err, "export: create dir")
	}

	sorted := make([]*model.CompanyRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if fitOrder[sorted[i].Fit] != fitOrder[sorted[j].Fit] {
			return fitOrder[sorted[i].Fit] < fitOrder[sorted[j].Fit]
		}
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	f := xlsx.NewFile()
	if err := writeCompanies(f, sorted); err != nil {
		return "", err
	}
	if err := writeLog(f, result); err != nil {
		return "", err
	}

	path := filepath.Join(dir, slug+"_companies.xlsx")
	if err := f.Save(path); err != nil {
		return "", eris.Wrap(err, "export: save workbook")
	}
	zap.L().Info("export: workbook written",
		zap.String("path", path),
		zap.Int("companies", len(sorted)),
	)
	return path, nil
}

func writeCompanies(f *xlsx.File, records []*model.CompanyRecord) error {
	sheet, err := f.AddSheet(companiesSheet)
	if err != nil {
		return eris.Wrap(err, "export: add companies sheet")
	}
	writeRow(sheet, companyColumns...)

	for _, rec := range records {
		var snippets []string
		for i, ev := range rec.Evidence {
			if i >= evidenceSample {
				break
			}
			snippets = append(snippets, ev.Snippet)
		}
		writeRow(sheet,
			rec.Name,
			string(rec.Fit),
			string(rec.Confidence),
			clip(rec.Rationale),
			fmt.Sprintf("%d", rec.SpeakerCount),
			clip(strings.Join(rec.Sources, "; ")),
			clip(strings.Join(snippets, " | ")),
			fmt.Sprintf("%d", rec.Revision),
		)
	}
	return nil
}

func writeLog(f *xlsx.File, result *model.RunResult) error {
	sheet, err := f.AddSheet(logSheet)
	if err != nil {
		return eris.Wrap(err, "export: add log sheet")
	}
	writeRow(sheet, "seq", "from", "to", "summary")
	if result == nil {
		return nil
	}
	for _, tr := range result.Transitions {
		writeRow(sheet, fmt.Sprintf("%d", tr.Seq), string(tr.From), string(tr.To), tr.Summary)
	}
	for _, an := range result.Anomalies {
		writeRow(sheet, "", string(an.Stage), "anomaly", clip(anomalyText(an)))
	}
	return nil
}

func anomalyText(an model.Anomaly) string {
	if an.Company == "" {
		return an.Message
	}
	return an.Company + ": " + an.Message
}

func writeRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

func clip(s string) string {
	if len(s) <= maxCellLen {
		return s
	}
	return s[:maxCellLen]
}
