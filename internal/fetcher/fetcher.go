// Package fetcher downloads conference site pages politely: a per-run
// rate limiter, retry with jittered backoff on transient statuses, and a
// fixed target plan derived from the seed URL. All fetching happens
// before the pipeline runs; nothing downstream triggers a network call.
package fetcher

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/confscout/internal/config"
	"github.com/sells-group/confscout/internal/extract"
	"github.com/sells-group/confscout/internal/model"
)

// maxBodyBytes caps how much of a page is read.
const maxBodyBytes = 2 << 20

// Target is one planned page fetch.
type Target struct {
	URL  string
	Type model.PageType
}

// SiteFetcher fetches planned conference pages over net/http.
type SiteFetcher struct {
	client     *http.Client
	limiter    *rate.Limiter
	userAgent  string
	maxRetries int
}

// New creates a SiteFetcher from configuration.
func New(cfg config.FetchConfig) *SiteFetcher {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "confscout/1.0"
	}
	return &SiteFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		userAgent:  ua,
		maxRetries: retries,
	}
}

// PlanTargets resolves the fixed relative target paths against the seed
// URL. The seed itself is always the first target; conference platforms
// keep the sponsor logo grid on the root page.
func PlanTargets(seedURL string, paths []string) ([]Target, error) {
	seed, err := url.Parse(seedURL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse seed url %q", seedURL)
	}
	if seed.Scheme == "" || seed.Host == "" {
		return nil, eris.Errorf("fetcher: seed url %q must be absolute", seedURL)
	}

	targets := []Target{{URL: seed.String(), Type: model.PageTypeRoot}}
	for _, p := range paths {
		ref, err := url.Parse(p)
		if err != nil {
			zap.L().Warn("fetcher: skipping bad target path", zap.String("path", p), zap.Error(err))
			continue
		}
		targets = append(targets, Target{
			URL:  seed.ResolveReference(ref).String(),
			Type: classifyPath(p),
		})
	}
	return targets, nil
}

// classifyPath labels a target path by its last segment.
func classifyPath(p string) model.PageType {
	p = strings.ToLower(strings.TrimRight(p, "/"))
	switch {
	case strings.HasSuffix(p, "/speakers"):
		return model.PageTypeSpeakers
	case strings.Contains(p, "agenda"):
		return model.PageTypeAgenda
	case strings.HasSuffix(p, "/sponsors"), strings.HasSuffix(p, "/exhibitors"):
		return model.PageTypeSponsors
	case strings.HasSuffix(p, "/mediapartners"), strings.HasSuffix(p, "/partners"), strings.HasSuffix(p, "/opportunities"):
		return model.PageTypeLogos
	default:
		return model.PageTypeUnknown
	}
}

// FetchAll downloads every target and returns the pages that succeeded.
// Individual fetch failures are logged and skipped so one dead page never
// sinks a run; only context cancellation aborts the sweep.
func (f *SiteFetcher) FetchAll(ctx context.Context, targets []Target) ([]extract.Page, error) {
	pages := make([]extract.Page, 0, len(targets))
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return pages, eris.Wrap(err, "fetcher: canceled")
		}
		html, err := f.Fetch(ctx, t.URL)
		if err != nil {
			zap.L().Warn("fetcher: page skipped",
				zap.String("url", t.URL),
				zap.String("type", string(t.Type)),
				zap.Error(err),
			)
			continue
		}
		pages = append(pages, extract.Page{URL: t.URL, Type: t.Type, HTML: html})
	}
	zap.L().Info("fetcher: sweep complete",
		zap.Int("targets", len(targets)),
		zap.Int("fetched", len(pages)),
	)
	return pages, nil
}

// Fetch downloads one URL with rate limiting and retries.
func (f *SiteFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	var lastErr error
	for attempt := range f.maxRetries {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "fetcher: rate limiter wait")
		}

		resp, err := f.client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			zap.L().Warn("fetcher: request failed, retrying",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			f.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("fetcher: http %d from %s", resp.StatusCode, rawURL)
			zap.L().Warn("fetcher: transient status, backing off",
				zap.String("url", rawURL),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			f.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return "", eris.Errorf("fetcher: http %d from %s", resp.StatusCode, rawURL)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
		if err != nil {
			return "", eris.Wrap(err, "fetcher: read body")
		}
		return string(body), nil
	}

	return "", eris.Wrap(lastErr, "fetcher: all retries exhausted")
}

func (f *SiteFetcher) backoff(ctx context.Context, attempt int) {
	base := time.Second
	maxBackoff := 30 * time.Second
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
