package forecastcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/fishai-advisor/internal/domain/advisor"
)

// ValkeyCache stores weather reports as JSON in a Valkey-compatible database.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkeyCache constructs a cache backed by Valkey.
func NewValkeyCache(client valkey.Client, prefix string) *ValkeyCache {
	if prefix == "" {
		prefix = "forecast"
	}
	return &ValkeyCache{client: client, prefix: prefix}
}

// Get implements advisor.ForecastCache.
func (c *ValkeyCache) Get(ctx context.Context, key string) (advisor.WeatherReport, bool, error) {
	cmd := c.client.B().Get().Key(c.entryKey(key)).Build()
	payload, err := c.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return advisor.WeatherReport{}, false, nil
		}
		return advisor.WeatherReport{}, false, err
	}
	var report advisor.WeatherReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return advisor.WeatherReport{}, false, fmt.Errorf("decode cached forecast: %w", err)
	}
	return report, true, nil
}

// Set implements advisor.ForecastCache.
func (c *ValkeyCache) Set(ctx context.Context, key string, report advisor.WeatherReport, ttl time.Duration) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	builder := c.client.B().Set().Key(c.entryKey(key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

func (c *ValkeyCache) entryKey(key string) string {
	return fmt.Sprintf("%s:%s", c.prefix, key)
}

var _ advisor.ForecastCache = (*ValkeyCache)(nil)
