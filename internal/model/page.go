package model

// PageType labels a conference page by its role on the site.
type PageType string

const (
	PageTypeRoot     PageType = "root"
	PageTypeSpeakers PageType = "speakers"
	PageTypeAgenda   PageType = "agenda"
	PageTypeLogos    PageType = "logos"
	PageTypeSponsors PageType = "sponsors"
	PageTypeUnknown  PageType = "unknown"
)

// RawPage is the cached fetched content for one page visited during
// extraction. Read-only after creation; enrichment searches this collection
// and never triggers a new fetch.
type RawPage struct {
	URL  string   `json:"url"`
	Type PageType `json:"type"`
	Text string   `json:"text"`
}
