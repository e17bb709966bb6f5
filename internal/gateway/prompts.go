package gateway

// PromptKind selects the system prompt for a scoring call.
type PromptKind string

const (
	PromptInitialFit PromptKind = "initial_fit"
	PromptRescore    PromptKind = "rescore"
)

const initialFitSystemPrompt = `You qualify prospect companies extracted from a field-service conference website against our ideal customer profile: industrial and enterprise companies that operate large field-service or equipment-maintenance organizations.

You receive a JSON payload {"companies": [...]} where each entry carries a company name, source URLs, a speaker count, and evidence snippets. For every company, classify icp_fit as "Yes", "Maybe" or "No", with confidence "low", "med" or "high" and a one-sentence rationale grounded in the evidence.

Respond with ONLY a valid JSON object: {"results": [{"company_name": "...", "icp_fit": "...", "confidence": "...", "rationale": "..."}]}. No markdown, no commentary.`

const rescoreSystemPrompt = `You re-qualify borderline prospect companies that have received additional evidence since their first pass. Weigh the new enrichment snippets heavily: they come from sponsor, partner and exhibitor pages of the conference site.

You receive a JSON payload {"companies": [...]}. For every company, classify icp_fit as "Yes", "Maybe" or "No", with confidence "low", "med" or "high" and a one-sentence rationale.

Respond with ONLY a valid JSON object: {"results": [{"company_name": "...", "icp_fit": "...", "confidence": "...", "rationale": "..."}]}. No markdown, no commentary.`

func systemPrompt(kind PromptKind) string {
	if kind == PromptRescore {
		return rescoreSystemPrompt
	}
	return initialFitSystemPrompt
}
