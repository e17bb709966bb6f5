package model

import "time"

// RunStatus represents the current state of a qualification run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run represents a single pipeline run for a conference site.
type Run struct {
	ID            string     `json:"id"`
	ConferenceURL string     `json:"conference_url"`
	Status        RunStatus  `json:"status"`
	Result        *RunResult `json:"result,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	Companies   int          `json:"companies"`
	FitCounts   map[Fit]int  `json:"fit_counts"`
	Borderline  int          `json:"borderline"`
	Enriched    int          `json:"enriched"`
	Transitions []Transition `json:"transitions"`
	Anomalies   []Anomaly    `json:"anomalies,omitempty"`
	OutputPath  string       `json:"output_path,omitempty"`
}

// CountFits tallies records by classification. Unscored records are not
// counted.
func CountFits(records []*CompanyRecord) map[Fit]int {
	counts := map[Fit]int{FitYes: 0, FitMaybe: 0, FitNo: 0}
	for _, r := range records {
		if r.Scored() {
			counts[r.Fit]++
		}
	}
	return counts
}
