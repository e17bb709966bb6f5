package model

// Stage names one step of the qualification pipeline.
type Stage string

const (
	StageIntake         Stage = "intake"
	StageInitialScoring Stage = "initial_scoring"
	StageBorderline     Stage = "borderline_selection"
	StageEnrichment     Stage = "enrichment"
	StageRescoring      Stage = "rescoring"
	StageFinalize       Stage = "finalize"
)

// Transition is one entry in the append-only conversation log. Consumers
// never mutate past entries.
type Transition struct {
	Seq     int    `json:"seq"`
	From    Stage  `json:"from"`
	To      Stage  `json:"to"`
	Summary string `json:"summary"`
}

// Anomaly records a recoverable oddity observed during a run: a scoring
// gap, an exhausted retry budget, an empty intake. Anomalies never abort
// the run; they are carried into the audit artifacts.
type Anomaly struct {
	Stage   Stage  `json:"stage"`
	Company string `json:"company,omitempty"`
	Message string `json:"message"`
}
