// Package gateway is the single entry point for calls to the external
// scoring service. It serializes and throttles every outbound call through
// an explicitly owned rate-limiter state and retries transient failures
// with exponential backoff. No other component may talk to the scoring
// model directly.
package gateway

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/confscout/internal/config"
	"github.com/sells-group/confscout/internal/model"
	"github.com/sells-group/confscout/internal/resilience"
	"github.com/sells-group/confscout/pkg/anthropic"
)

// Gateway throttles and retries scoring calls.
type Gateway struct {
	client  anthropic.Client
	limiter *Limiter
	cfg     config.ScoringConfig
	ai      config.AnthropicConfig
}

// New creates a Gateway around a model client.
func New(client anthropic.Client, aiCfg config.AnthropicConfig, cfg config.ScoringConfig) *Gateway {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if aiCfg.MaxTokens <= 0 {
		aiCfg.MaxTokens = 1600
	}
	return &Gateway{
		client:  client,
		limiter: NewLimiter(cfg),
		cfg:     cfg,
		ai:      aiCfg,
	}
}

// BatchSize returns the configured maximum companies per scoring call.
func (g *Gateway) BatchSize() int {
	return g.cfg.BatchSize
}

type scorePayload struct {
	Companies []model.CompanyCard `json:"companies"`
}

// Score submits one batch of company cards and returns their results in
// request order. Companies missing from an otherwise valid response are
// simply absent from the returned slice; the caller decides how to flag
// the gap. A response that is not parseable as the expected structure is
// downgraded to conservative fallback results rather than failing the
// batch. Exhausting the retry budget returns a *ScoringUnavailableError
// and no results.
func (g *Gateway) Score(ctx context.Context, batch []model.CompanyCard, kind PromptKind) ([]model.ScoreResult, error) {
	if len(batch) == 0 {
		return nil, eris.New("gateway: empty batch")
	}
	if len(batch) > g.cfg.BatchSize {
		return nil, eris.Errorf("gateway: batch size %d exceeds maximum %d", len(batch), g.cfg.BatchSize)
	}

	payload, err := json.Marshal(scorePayload{Companies: batch})
	if err != nil {
		return nil, eris.Wrap(err, "gateway: marshal payload")
	}

	retryCfg := resilience.RetryConfig{
		MaxAttempts: g.cfg.MaxAttempts,
		BaseDelay:   g.cfg.BaseBackoff(),
		Multiplier:  2.0,
		OnRetry:     resilience.RetryLogger("anthropic", string(kind)),
	}

	// Both throttles are re-checked inside the retry loop so retries
	// count as separate calls for limiting purposes.
	resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		if acqErr := g.limiter.Acquire(ctx); acqErr != nil {
			return nil, acqErr
		}
		return g.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     g.ai.Model,
			MaxTokens: g.ai.MaxTokens,
			System:    systemPrompt(kind),
			Messages: []anthropic.Message{
				{Role: "user", Content: string(payload)},
			},
		})
	})
	if err != nil {
		return nil, &ScoringUnavailableError{Kind: kind, Err: err}
	}

	results, parseErr := parseResults(resp.Text())
	if parseErr != nil {
		zap.L().Warn("gateway: unparseable scoring response, using conservative fallback",
			zap.String("kind", string(kind)),
			zap.Int("batch_size", len(batch)),
			zap.Error(parseErr),
		)
		return fallbackResults(batch), nil
	}

	return orderResults(batch, results), nil
}
