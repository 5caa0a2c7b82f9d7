package advisor

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter gates requests per client and endpoint.
type RateLimiter interface {
	Check(clientID, endpoint string) Quota
}

// SessionStore keeps chat transcripts.
type SessionStore interface {
	// GetOrCreate returns the transcript for sessionID, creating the session
	// when the id is empty or unknown. It reports whether a session was created.
	GetOrCreate(sessionID string) (id string, transcript []Turn, created bool)
	// Append adds a turn to an existing session. It reports false when the
	// session is gone, in which case nothing is stored.
	Append(sessionID string, turn Turn) bool
	RecentWindow(sessionID string, n int) []Turn
	EvictIfOverCapacity() int
}

// Model is the external advisory model.
type Model interface {
	Complete(ctx context.Context, prompt Prompt) (Completion, error)
}

// WeatherProvider fetches current conditions and a forecast series.
type WeatherProvider interface {
	Fetch(ctx context.Context, city, country string) (WeatherReport, error)
}

// ForecastCache stores weather reports keyed by location.
type ForecastCache interface {
	Get(ctx context.Context, key string) (WeatherReport, bool, error)
	Set(ctx context.Context, key string, report WeatherReport, ttl time.Duration) error
}

// CooldownError is returned when a client exhausted its quota.
type CooldownError struct {
	Endpoint string
	Quota    Quota
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s quota exhausted until %s", e.Endpoint, e.Quota.ResetAt.Format(time.RFC3339))
}

// RetryAfter is the whole-second wait until the window resets, at least one.
func (e *CooldownError) RetryAfter(now time.Time) int {
	secs := int(e.Quota.ResetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
