package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/confscout/internal/config"
)

// fakeClock drives a limiter deterministically: sleep advances the clock
// instead of waiting.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
	return nil
}

func newTestLimiter(t *testing.T, cfg config.ScoringConfig) (*Limiter, *fakeClock) {
	t.Helper()
	clk := newFakeClock()
	l := NewLimiter(cfg)
	l.now = clk.now
	l.sleep = clk.sleep
	return l, clk
}

// acquireAll runs n acquisitions and returns the issue timestamp of each.
func acquireAll(t *testing.T, l *Limiter, clk *fakeClock, n int) []time.Time {
	t.Helper()
	var issued []time.Time
	for i := 0; i < n; i++ {
		require.NoError(t, l.Acquire(context.Background()))
		issued = append(issued, clk.now())
	}
	return issued
}

func TestAcquire_MinIntervalBetweenCalls(t *testing.T) {
	l, clk := newTestLimiter(t, config.ScoringConfig{
		MinIntervalSecs: 3.0,
		RPMLimit:        1000, // window never binds here
	})

	issued := acquireAll(t, l, clk, 10)
	for i := 1; i < len(issued); i++ {
		gap := issued[i].Sub(issued[i-1])
		assert.GreaterOrEqual(t, gap, 3*time.Second, "gap between call %d and %d", i-1, i)
	}
}

func TestAcquire_RollingWindowRPMCeiling(t *testing.T) {
	l, clk := newTestLimiter(t, config.ScoringConfig{
		MinIntervalSecs: 0.1,
		RPMLimit:        15,
		MaxHistory:      100,
	})

	issued := acquireAll(t, l, clk, 40)

	// Replay the call log: no 60s sliding window may hold more than 15 calls.
	for i := range issued {
		count := 0
		for j := i; j < len(issued); j++ {
			if issued[j].Sub(issued[i]) < rollingWindow {
				count++
			}
		}
		assert.LessOrEqual(t, count, 15, "window starting at call %d", i)
	}
}

func TestAcquire_WaitsForOldestToExitWindow(t *testing.T) {
	l, clk := newTestLimiter(t, config.ScoringConfig{
		MinIntervalSecs: 0,
		RPMLimit:        3,
		MaxHistory:      100,
	})

	issued := acquireAll(t, l, clk, 4)

	// First three go through back to back; the fourth must wait until the
	// first call leaves the 60s window.
	assert.Equal(t, issued[0], issued[1])
	assert.Equal(t, issued[0], issued[2])
	assert.Equal(t, issued[0].Add(rollingWindow), issued[3])
}

func TestAcquire_HistoryBounded(t *testing.T) {
	l, clk := newTestLimiter(t, config.ScoringConfig{
		MinIntervalSecs: 3.0,
		RPMLimit:        1000,
		MaxHistory:      5,
	})

	acquireAll(t, l, clk, 12)
	assert.LessOrEqual(t, len(l.issued()), 5)
}

func TestAcquire_ContextCanceled(t *testing.T) {
	l, _ := newTestLimiter(t, config.ScoringConfig{MinIntervalSecs: 3.0, RPMLimit: 15})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Acquire(ctx))
}

func TestAcquire_ConcurrentCallersNeverViolateThrottle(t *testing.T) {
	l, _ := newTestLimiter(t, config.ScoringConfig{
		MinIntervalSecs: 1.0,
		RPMLimit:        1000,
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Acquire(context.Background()))
		}()
	}
	wg.Wait()

	issued := l.issued()
	require.Len(t, issued, 8)
	for i := 1; i < len(issued); i++ {
		assert.GreaterOrEqual(t, issued[i].Sub(issued[i-1]), time.Second)
	}
}
