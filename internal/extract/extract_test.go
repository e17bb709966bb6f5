package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/confscout/internal/model"
)

const logoGridHTML = `<html><body>
<div class="sponsor-grid">
  <img src="/UploadedFiles/EventPage/315401/images/Logos_0042_abb.jpg">
  <img src="/UploadedFiles/EventPage/315401/images/Logos_0043_siemens.png">
  <img src="/UploadedFiles/EventPage/315401/images/Logo_7_johnson controls.webp">
  <img src="/UploadedFiles/EventPage/315401/images/Logos_0042_abb.jpg">
  <img src="/assets/header-banner.png">
  <img src="/images/photo_team.jpg">
</div>
</body></html>`

const speakersHTML = `<html><body>
<div class="row">
  <div class="col-md-4 speaker"><p>Jane Doe<br>VP of Service<br><strong>ABB</strong></p></div>
  <div class="col-md-4 speaker"><p>John Roe<br>CTO<br><strong>Siemens</strong></p></div>
  <div class="col-md-4 speaker"><p>Ann Poe<br>Director<br><strong>ABB</strong></p></div>
  <div class="col-md-4 speaker"><p>Empty Card<br>No company</p></div>
</div>
<script>var tracking = "noise";</script>
</body></html>`

func TestFromPages_LogoGrid(t *testing.T) {
	res := FromPages([]Page{{
		URL:  "https://conf.example.com/sponsors",
		Type: model.PageTypeSponsors,
		HTML: logoGridHTML,
	}})

	require.Len(t, res.Candidates, 3)
	names := make([]string, 0, 3)
	for _, c := range res.Candidates {
		names = append(names, c.Name)
		assert.Equal(t, model.SourceLogo, c.Source)
		assert.Equal(t, "https://conf.example.com/sponsors", c.Evidence.URL)
		assert.Contains(t, c.Evidence.Snippet, "Logo image src:")
	}
	assert.Equal(t, []string{"abb", "siemens", "johnson controls"}, names)
}

func TestFromPages_RootPageGetsLogoExtraction(t *testing.T) {
	res := FromPages([]Page{{
		URL:  "https://conf.example.com/",
		Type: model.PageTypeRoot,
		HTML: logoGridHTML,
	}})
	assert.Len(t, res.Candidates, 3)
}

func TestFromPages_Speakers(t *testing.T) {
	res := FromPages([]Page{{
		URL:  "https://conf.example.com/speakers",
		Type: model.PageTypeSpeakers,
		HTML: speakersHTML,
	}})

	require.Len(t, res.Candidates, 2)
	assert.Equal(t, 3, res.SpeakerCount)

	abb := res.Candidates[0]
	assert.Equal(t, "ABB", abb.Name)
	assert.Equal(t, model.SourceSpeakers, abb.Source)
	assert.Equal(t, 2, abb.Speakers)

	siemens := res.Candidates[1]
	assert.Equal(t, "Siemens", siemens.Name)
	assert.Equal(t, 1, siemens.Speakers)
}

func TestFromPages_AgendaContributesOnlyText(t *testing.T) {
	res := FromPages([]Page{{
		URL:  "https://conf.example.com/agenda",
		Type: model.PageTypeAgenda,
		HTML: `<html><body><h1>Agenda</h1><p>Keynote by Acme Corp leadership</p></body></html>`,
	}})

	assert.Empty(t, res.Candidates)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, model.PageTypeAgenda, res.Pages[0].Type)
	assert.Contains(t, res.Pages[0].Text, "Keynote by Acme Corp leadership")
}

func TestFromPages_PageTextStripsScripts(t *testing.T) {
	res := FromPages([]Page{{
		URL:  "https://conf.example.com/speakers",
		Type: model.PageTypeSpeakers,
		HTML: speakersHTML,
	}})

	require.Len(t, res.Pages, 1)
	assert.NotContains(t, res.Pages[0].Text, "tracking")
	assert.Contains(t, res.Pages[0].Text, "Jane Doe")
}

func TestFromPages_Empty(t *testing.T) {
	res := FromPages(nil)
	assert.Empty(t, res.Candidates)
	assert.Empty(t, res.Pages)
	assert.Zero(t, res.SpeakerCount)
}

func TestLogoNameRe(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"/UploadedFiles/EventPage/315401/images/Logos_0042_abb.jpg", "abb"},
		{"/img/Logo_7_johnson controls.webp", "johnson controls"},
		{"/img/logos-12-acme.PNG", "acme"},
		{"/img/Logos_0042_j&j.jpeg", "j&j"},
		{"/assets/banner.png", ""},
		{"/img/Logos_badname.jpg", ""},
	}
	for _, tt := range tests {
		m := logoNameRe.FindStringSubmatch(tt.src)
		if tt.want == "" {
			assert.Nil(t, m, tt.src)
			continue
		}
		require.NotNil(t, m, tt.src)
		assert.Equal(t, tt.want, m[1], tt.src)
	}
}
