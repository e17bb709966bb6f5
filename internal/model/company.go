// Package model defines the data types shared across the qualification pipeline.
package model

import "strings"

// Fit classifies a company against the ideal customer profile.
type Fit string

const (
	// FitUnset marks a record that has not been scored yet, or whose
	// scoring batch failed outright.
	FitUnset Fit = ""
	FitYes   Fit = "Yes"
	FitMaybe Fit = "Maybe"
	FitNo    Fit = "No"
)

// ParseFit validates a raw fit string from a model response. Casing
// varies across responses, so matching is case-insensitive.
func ParseFit(s string) (Fit, bool) {
	switch strings.ToLower(s) {
	case "yes":
		return FitYes, true
	case "maybe":
		return FitMaybe, true
	case "no":
		return FitNo, true
	default:
		return FitUnset, false
	}
}

// Confidence expresses how certain a fit classification is.
type Confidence string

const (
	ConfidenceUnset Confidence = ""
	ConfidenceLow   Confidence = "low"
	ConfidenceMed   Confidence = "med"
	ConfidenceHigh  Confidence = "high"
)

// ParseConfidence validates a raw confidence string. Unknown values
// downgrade to low rather than failing the entry.
func ParseConfidence(s string) Confidence {
	switch Confidence(s) {
	case ConfidenceLow, ConfidenceMed, ConfidenceHigh:
		return Confidence(s)
	default:
		return ConfidenceLow
	}
}

// SourceType identifies where a piece of evidence came from.
type SourceType string

const (
	SourceLogo       SourceType = "logo"
	SourceAgenda     SourceType = "agenda"
	SourceSpeakers   SourceType = "speakers"
	SourceEnrichment SourceType = "enrichment"
	SourceUnknown    SourceType = "unknown"
)

// Evidence is a grounded snippet of source text supporting a classification.
// Immutable once appended to a record.
type Evidence struct {
	URL     string     `json:"url"`
	Snippet string     `json:"snippet"`
	Source  SourceType `json:"source"`
}

// CompanyRecord is the evolving ledger entry for one prospect company.
// Fit, confidence and rationale are overwritten by scoring passes, and
// Revision increments on every such overwrite. The evidence list only grows.
type CompanyRecord struct {
	Name         string     `json:"name"`
	Sources      []string   `json:"sources,omitempty"`
	SpeakerCount int        `json:"speaker_count"`
	Evidence     []Evidence `json:"evidence,omitempty"`
	Fit          Fit        `json:"fit,omitempty"`
	Confidence   Confidence `json:"confidence,omitempty"`
	Rationale    string     `json:"rationale,omitempty"`
	Revision     int        `json:"revision"`
}

// Scored reports whether the record has received a fit classification.
func (r *CompanyRecord) Scored() bool {
	return r.Fit != FitUnset
}

// CompanyCard is the read-only view of a record submitted to the scoring
// service as part of a batch payload.
type CompanyCard struct {
	CompanyName      string   `json:"company_name"`
	Sources          []string `json:"sources,omitempty"`
	SpeakerCount     int      `json:"speakers_count"`
	EvidenceSnippets []string `json:"evidence_snippets,omitempty"`
}

// Card builds the scoring view of the record, capped at maxSnippets
// evidence snippets and maxSources source URLs.
func (r *CompanyRecord) Card(maxSnippets, maxSources int) CompanyCard {
	card := CompanyCard{
		CompanyName:  r.Name,
		SpeakerCount: r.SpeakerCount,
	}
	for i, ev := range r.Evidence {
		if i >= maxSnippets {
			break
		}
		card.EvidenceSnippets = append(card.EvidenceSnippets, ev.Snippet)
	}
	for i, src := range r.Sources {
		if i >= maxSources {
			break
		}
		card.Sources = append(card.Sources, src)
	}
	return card
}
