package forecastcache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yanqian/fishai-advisor/internal/domain/advisor"
)

type entry struct {
	report    advisor.WeatherReport
	expiresAt time.Time
}

// MemoryCache keeps weather reports in process memory. Expired entries are
// dropped on read and by Run.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	sweep   time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewMemoryCache constructs an empty cache swept every sweepInterval.
func NewMemoryCache(sweepInterval time.Duration, logger *slog.Logger) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]entry),
		sweep:   sweepInterval,
		logger:  logger.With("component", "forecastcache.memory"),
		now:     time.Now,
	}
}

// Get implements advisor.ForecastCache.
func (c *MemoryCache) Get(_ context.Context, key string) (advisor.WeatherReport, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return advisor.WeatherReport{}, false, nil
	}
	if c.expired(e.expiresAt) {
		c.mu.Lock()
		if current, ok := c.entries[key]; ok && c.expired(current.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return advisor.WeatherReport{}, false, nil
	}
	return e.report, true, nil
}

// Set stores the report; a non-positive ttl never expires.
func (c *MemoryCache) Set(_ context.Context, key string, report advisor.WeatherReport, ttl time.Duration) error {
	exp := time.Time{}
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{report: report, expiresAt: exp}
	return nil
}

// Sweep removes expired entries and returns how many were dropped.
func (c *MemoryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, e := range c.entries {
		if c.expired(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Run sweeps on every interval tick until ctx is cancelled.
func (c *MemoryCache) Run(ctx context.Context) {
	if c.sweep <= 0 {
		return
	}
	ticker := time.NewTicker(c.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := c.Sweep(); removed > 0 {
				c.logger.Debug("expired forecasts swept", "removed", removed, "remaining", c.Len())
			}
		}
	}
}

func (c *MemoryCache) expired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return !c.now().Before(ts)
}

var _ advisor.ForecastCache = (*MemoryCache)(nil)
