package model

// ResultOrigin distinguishes results parsed from valid structured output
// from results synthesized by the conservative fallback path.
type ResultOrigin string

const (
	OriginParsed   ResultOrigin = "parsed"
	OriginFallback ResultOrigin = "fallback"
)

// ScoreResult is one company's outcome from a scoring call.
type ScoreResult struct {
	CompanyName string       `json:"company_name"`
	Fit         Fit          `json:"icp_fit"`
	Confidence  Confidence   `json:"confidence"`
	Rationale   string       `json:"rationale"`
	Origin      ResultOrigin `json:"origin,omitempty"`
}
