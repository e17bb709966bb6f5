package gateway

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/confscout/internal/config"
)

// Limiter owns the process-wide call-history state for the scoring
// service. Two independent throttles are enforced, both mandatory:
//
//  1. a minimum interval between consecutive calls, smoothing bursts, and
//  2. a rolling 60-second window capped at the service's RPM ceiling.
//
// Acquire holds the limiter mutex for the full check-and-reserve critical
// section, so concurrent callers queue here and can never jointly violate
// either throttle. Callers must not hold any other lock while suspended.
type Limiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	rpmLimit    int
	window      time.Duration
	maxHistory  int

	history []time.Time // timestamps of issued calls, oldest first
	last    time.Time   // timestamp of the last issued call

	// injectable for synthetic-clock tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// rollingWindow is fixed by the external service's quota definition.
const rollingWindow = 60 * time.Second

// NewLimiter creates a limiter from scoring configuration.
func NewLimiter(cfg config.ScoringConfig) *Limiter {
	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = 100
	}
	return &Limiter{
		minInterval: cfg.MinInterval(),
		rpmLimit:    cfg.RPMLimit,
		window:      rollingWindow,
		maxHistory:  maxHistory,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Acquire blocks until both throttles permit a call, then records the call
// as issued. Every outbound attempt, including retries, must go through
// Acquire again.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		now := l.now()

		// Minimum-interval throttle.
		if !l.last.IsZero() {
			if wait := l.last.Add(l.minInterval).Sub(now); wait > 0 {
				if err := l.sleep(ctx, wait); err != nil {
					return err
				}
				continue
			}
		}

		// Rolling-window throttle.
		l.prune(now)
		if l.rpmLimit > 0 && len(l.history) >= l.rpmLimit {
			wait := l.history[0].Add(l.window).Sub(now)
			if wait > 0 {
				zap.L().Info("gateway: rolling window full, waiting",
					zap.Int("calls_in_window", len(l.history)),
					zap.Int("rpm_limit", l.rpmLimit),
					zap.Duration("wait", wait),
				)
				if err := l.sleep(ctx, wait); err != nil {
					return err
				}
			}
			continue
		}

		l.last = now
		l.history = append(l.history, now)
		if len(l.history) > l.maxHistory {
			l.history = l.history[len(l.history)-l.maxHistory:]
		}
		return nil
	}
}

// prune drops history entries that have left the rolling window.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.history) && !l.history[i].After(cutoff) {
		i++
	}
	l.history = l.history[i:]
}

// issued returns a copy of the timestamps currently tracked in the window.
// Test hook.
func (l *Limiter) issued() []time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]time.Time, len(l.history))
	copy(out, l.history)
	return out
}
