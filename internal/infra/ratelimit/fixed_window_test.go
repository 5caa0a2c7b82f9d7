package ratelimit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/fishai-advisor/internal/infra/config"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(cfg config.RateLimitConfig) (*FixedWindow, *fakeClock) {
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = 10
	}
	if cfg.Window == 0 {
		cfg.Window = time.Minute
	}
	clock := &fakeClock{t: time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)}
	l := NewFixedWindow(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.now = clock.now
	return l, clock
}

func TestCheckDeniesAfterLimitAndResets(t *testing.T) {
	l, clock := newTestLimiter(config.RateLimitConfig{})
	start := clock.now()

	for i := 1; i <= 10; i++ {
		q := l.Check("1.2.3.4", "chat")
		require.True(t, q.Allowed, "request %d", i)
		require.Equal(t, 10-i, q.Remaining)
		require.Equal(t, start.Add(time.Minute), q.ResetAt)
	}

	denied := l.Check("1.2.3.4", "chat")
	require.False(t, denied.Allowed)
	require.Zero(t, denied.Remaining)
	require.Equal(t, 10, denied.Limit)
	require.Equal(t, start.Add(time.Minute), denied.ResetAt)

	clock.advance(61 * time.Second)
	again := l.Check("1.2.3.4", "chat")
	require.True(t, again.Allowed)
	require.Equal(t, 9, again.Remaining)
	require.Equal(t, clock.now().Add(time.Minute), again.ResetAt)
}

func TestCheckWindowBoundaryIsExclusive(t *testing.T) {
	l, clock := newTestLimiter(config.RateLimitConfig{RequestsPerMinute: 1})

	require.True(t, l.Check("a", "chat").Allowed)
	clock.advance(time.Minute - time.Millisecond)
	require.False(t, l.Check("a", "chat").Allowed)
	clock.advance(time.Millisecond)
	require.True(t, l.Check("a", "chat").Allowed)
}

func TestCheckScopesByClientAndEndpoint(t *testing.T) {
	l, _ := newTestLimiter(config.RateLimitConfig{RequestsPerMinute: 1})

	require.True(t, l.Check("a", "chat").Allowed)
	require.False(t, l.Check("a", "chat").Allowed)
	require.True(t, l.Check("a", "tackle-advice").Allowed)
	require.True(t, l.Check("b", "chat").Allowed)
}

func TestCheckEndpointOverrides(t *testing.T) {
	l, _ := newTestLimiter(config.RateLimitConfig{
		RequestsPerMinute: 10,
		Endpoints:         map[string]int{"evaluate-fish": 2},
	})

	first := l.Check("a", "evaluate-fish")
	require.Equal(t, 2, first.Limit)
	require.Equal(t, 1, first.Remaining)
	require.True(t, l.Check("a", "evaluate-fish").Allowed)
	require.False(t, l.Check("a", "evaluate-fish").Allowed)

	require.Equal(t, 10, l.Check("a", "chat").Limit)
}

func TestSweepRemovesStaleEntries(t *testing.T) {
	l, clock := newTestLimiter(config.RateLimitConfig{})

	l.Check("old", "chat")
	clock.advance(90 * time.Second)
	l.Check("fresh", "chat")
	clock.advance(31 * time.Second)

	require.Equal(t, 1, l.Sweep())
	require.Equal(t, 1, l.Len())

	q := l.Check("old", "chat")
	require.True(t, q.Allowed)
	require.Equal(t, 9, q.Remaining)
}

func TestCheckConcurrentCallersNeverExceedLimit(t *testing.T) {
	l, _ := newTestLimiter(config.RateLimitConfig{RequestsPerMinute: 25})

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Check("shared", "chat").Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 25, allowed.Load())
}

func TestRunStopsOnCancel(t *testing.T) {
	l, _ := newTestLimiter(config.RateLimitConfig{SweepInterval: time.Millisecond})
	for i := 0; i < 3; i++ {
		l.Check(fmt.Sprintf("client-%d", i), "chat")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
	require.Equal(t, 3, l.Len())
}
