// Package extract pulls company candidates out of fetched conference
// pages. Extraction is fully deterministic: logo grids and speaker cards
// are parsed from the HTML, and no model call ever happens here.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/confscout/internal/model"
	"github.com/sells-group/confscout/internal/names"
)

// Conference platforms name sponsor logo assets like
// /UploadedFiles/EventPage/315401/images/Logos_0042_abb.jpg
// where the trailing token is the company name.
var logoNameRe = regexp.MustCompile(`(?i)/Logos?\s*[_-]?\s*\d+\s*[_-]\s*([a-zA-Z0-9&\-.\s]+)\.(?:png|jpg|jpeg|webp)`)

var wsRe = regexp.MustCompile(`\s+`)

// Page is one fetched page handed to extraction, HTML still intact.
type Page struct {
	URL  string
	Type model.PageType
	HTML string
}

// Candidate is one company sighting on a page. The same company may be
// sighted several times across pages; merging is the ledger's job.
type Candidate struct {
	Name     string
	Source   model.SourceType
	Speakers int
	Evidence model.Evidence
}

// Result carries everything extraction produced from a set of pages: the
// company sightings, the plaintext page cache kept for enrichment, and
// the total speaker count across speaker pages.
type Result struct {
	Candidates   []Candidate
	Pages        []model.RawPage
	SpeakerCount int
}

// FromPages runs extraction over every fetched page. Pages that fail to
// parse are logged and skipped rather than failing the whole intake.
func FromPages(pages []Page) *Result {
	res := &Result{}

	for _, p := range pages {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.HTML))
		if err != nil {
			zap.L().Warn("extract: unparseable page, skipping",
				zap.String("url", p.URL),
				zap.Error(err),
			)
			continue
		}

		// Root pages carry the big logo grid, so they always get logo
		// extraction alongside dedicated logo and sponsor pages.
		switch p.Type {
		case model.PageTypeRoot, model.PageTypeLogos, model.PageTypeSponsors:
			cands := fromLogos(p.URL, doc)
			if len(cands) > 0 {
				zap.L().Info("extract: logo companies found",
					zap.String("url", p.URL),
					zap.Int("count", len(cands)),
				)
				res.Candidates = append(res.Candidates, cands...)
			}
		}

		if p.Type == model.PageTypeSpeakers || strings.HasSuffix(strings.TrimRight(p.URL, "/"), "/speakers") {
			cands, speakers := fromSpeakers(p.URL, doc)
			if len(cands) > 0 {
				zap.L().Info("extract: speaker companies found",
					zap.String("url", p.URL),
					zap.Int("count", len(cands)),
					zap.Int("speakers", speakers),
				)
				res.Candidates = append(res.Candidates, cands...)
			}
			res.SpeakerCount += speakers
		}

		res.Pages = append(res.Pages, model.RawPage{
			URL:  p.URL,
			Type: p.Type,
			Text: pageText(doc),
		})
	}

	return res
}

// fromLogos walks every img tag and recovers company names from logo
// asset filenames.
func fromLogos(url string, doc *goquery.Document) []Candidate {
	seen := make(map[string]bool)
	var out []Candidate

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok {
			return
		}
		m := logoNameRe.FindStringSubmatch(src)
		if m == nil {
			return
		}
		name := names.Clean(strings.ReplaceAll(m[1], "_", " "))
		if name == "" || seen[names.Key(name)] {
			return
		}
		seen[names.Key(name)] = true
		out = append(out, Candidate{
			Name:   name,
			Source: model.SourceLogo,
			Evidence: model.Evidence{
				URL:     url,
				Snippet: "Logo image src: " + src,
				Source:  model.SourceLogo,
			},
		})
	})

	return out
}

// fromSpeakers parses speaker cards. The platform renders each speaker as
//
//	<div class="col-..."><p>Name<br>Title<br><strong>Company</strong></p></div>
//
// so each strong tag inside a card is one speaker's company. Returns the
// per-company candidates (Speakers carrying the per-company count) and
// the total speaker count on the page.
func fromSpeakers(url string, doc *goquery.Document) ([]Candidate, int) {
	strongs := doc.Find("div[class*='col-'] strong")
	if strongs.Length() == 0 {
		strongs = doc.Find("strong")
	}

	byKey := make(map[string]*Candidate)
	var order []string
	speakers := 0

	strongs.Each(func(_ int, st *goquery.Selection) {
		company := names.Clean(st.Text())
		if len(company) < 2 {
			return
		}
		speakers++

		key := names.Key(company)
		if c, ok := byKey[key]; ok {
			c.Speakers++
			return
		}
		byKey[key] = &Candidate{
			Name:     company,
			Source:   model.SourceSpeakers,
			Speakers: 1,
			Evidence: model.Evidence{
				URL:     url,
				Snippet: "Speakers page company: " + company,
				Source:  model.SourceSpeakers,
			},
		}
		order = append(order, key)
	})

	out := make([]Candidate, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out, speakers
}

// pageText flattens a parsed page to searchable plaintext.
func pageText(doc *goquery.Document) string {
	doc.Find("script, style, noscript").Remove()
	return strings.TrimSpace(wsRe.ReplaceAllString(doc.Text(), " "))
}
