package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yanqian/fishai-advisor/internal/domain/advisor"
	"github.com/yanqian/fishai-advisor/internal/infra/config"
)

type entry struct {
	count       int
	windowStart time.Time
}

// FixedWindow counts requests per client and endpoint in fixed windows.
// Bursts of up to twice the limit are possible across a window boundary.
type FixedWindow struct {
	mu        sync.Mutex
	entries   map[string]*entry
	limit     int
	overrides map[string]int
	window    time.Duration
	sweep     time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewFixedWindow builds a limiter from configuration.
func NewFixedWindow(cfg config.RateLimitConfig, logger *slog.Logger) *FixedWindow {
	overrides := make(map[string]int, len(cfg.Endpoints))
	for endpoint, limit := range cfg.Endpoints {
		overrides[endpoint] = limit
	}
	return &FixedWindow{
		entries:   make(map[string]*entry),
		limit:     cfg.RequestsPerMinute,
		overrides: overrides,
		window:    cfg.Window,
		sweep:     cfg.SweepInterval,
		logger:    logger.With("component", "ratelimit.fixed_window"),
		now:       time.Now,
	}
}

// Check implements advisor.RateLimiter.
func (l *FixedWindow) Check(clientID, endpoint string) advisor.Quota {
	limit := l.limitFor(endpoint)
	key := clientID + ":" + endpoint

	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	e, ok := l.entries[key]
	if !ok || now.Sub(e.windowStart) >= l.window {
		l.entries[key] = &entry{count: 1, windowStart: now}
		return advisor.Quota{Allowed: true, Limit: limit, Remaining: limit - 1, ResetAt: now.Add(l.window)}
	}

	resetAt := e.windowStart.Add(l.window)
	if e.count >= limit {
		return advisor.Quota{Allowed: false, Limit: limit, Remaining: 0, ResetAt: resetAt}
	}
	e.count++
	return advisor.Quota{Allowed: true, Limit: limit, Remaining: limit - e.count, ResetAt: resetAt}
}

func (l *FixedWindow) limitFor(endpoint string) int {
	if limit, ok := l.overrides[endpoint]; ok {
		return limit
	}
	return l.limit
}

// Sweep drops entries whose window started more than two windows ago and
// returns how many were removed.
func (l *FixedWindow) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	removed := 0
	for key, e := range l.entries {
		if now.Sub(e.windowStart) > 2*l.window {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked client/endpoint pairs.
func (l *FixedWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Run sweeps on every interval tick until ctx is cancelled.
func (l *FixedWindow) Run(ctx context.Context) {
	if l.sweep <= 0 {
		return
	}
	ticker := time.NewTicker(l.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := l.Sweep(); removed > 0 {
				l.logger.Debug("rate limit entries swept", "removed", removed, "remaining", l.Len())
			}
		}
	}
}

var _ advisor.RateLimiter = (*FixedWindow)(nil)
