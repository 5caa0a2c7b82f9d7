package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/fishai-advisor/internal/domain/advisor"
	"github.com/yanqian/fishai-advisor/internal/infra/advisorllm"
	"github.com/yanqian/fishai-advisor/internal/infra/config"
	"github.com/yanqian/fishai-advisor/internal/infra/forecastcache"
	"github.com/yanqian/fishai-advisor/internal/infra/llm/chatgpt"
	"github.com/yanqian/fishai-advisor/internal/infra/ratelimit"
	"github.com/yanqian/fishai-advisor/internal/infra/sessionstore"
	"github.com/yanqian/fishai-advisor/internal/infra/weather/openweather"
	"github.com/yanqian/fishai-advisor/pkg/metrics"
)

func provideAdvisorConfig(cfg *config.Config) advisor.Config {
	ttl := time.Duration(0)
	if cfg.Weather.Cache.Enabled {
		ttl = cfg.Weather.Cache.TTL
	}
	return advisor.Config{
		SystemPrompt:     cfg.Advisor.SystemPrompt,
		MaxTokens:        cfg.LLM.MaxTokens,
		ChatMaxTokens:    cfg.LLM.ChatMaxTokens,
		VisionTimeout:    cfg.Advisor.VisionTimeout,
		TextTimeout:      cfg.Advisor.TextTimeout,
		WeatherTimeout:   cfg.Weather.Timeout,
		MaxPhotoBytes:    cfg.Advisor.MaxPhotoBytes,
		ContextTurns:     cfg.Chat.ContextTurns,
		ForecastDays:     cfg.Weather.ForecastDays,
		ForecastCacheTTL: ttl,
	}
}

// provideTokenCounter loads the encoding before serving so usage estimates
// never fetch BPE data on the request path.
func provideTokenCounter(cfg *config.Config, logger *slog.Logger) *metrics.TokenCounter {
	counter := metrics.NewTokenCounter(cfg.LLM.TokenEncoding)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := counter.Load(ctx); err != nil {
		logger.Warn("token encoding unavailable, estimating usage heuristically", "encoding", cfg.LLM.TokenEncoding, "error", err)
	}
	return counter
}

func provideModel(cfg *config.Config, counter *metrics.TokenCounter, logger *slog.Logger) (advisor.Model, error) {
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.Advisor.VisionTimeout)
		if err != nil {
			return nil, fmt.Errorf("build chatgpt client: %w", err)
		}
		logger.Info("advisory model ready", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
		return advisorllm.NewChatGPTModel(client, cfg.LLM.Model, cfg.LLM.Temperature, counter), nil
	case config.ProviderAnthropic, config.ProviderOllama:
		model, err := advisorllm.NewLangChainModel(cfg.LLM, counter)
		if err != nil {
			return nil, fmt.Errorf("build %s model: %w", cfg.LLM.Provider, err)
		}
		logger.Info("advisory model ready", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLM.Provider)
	}
}

func provideRateLimiter(cfg *config.Config, logger *slog.Logger) *ratelimit.FixedWindow {
	return ratelimit.NewFixedWindow(cfg.RateLimit, logger)
}

func provideSessionStore(cfg *config.Config, logger *slog.Logger) *sessionstore.MemoryStore {
	return sessionstore.NewMemoryStore(cfg.Chat, logger)
}

func provideWeatherClient(cfg *config.Config, logger *slog.Logger) (*openweather.Client, error) {
	return openweather.NewClient(cfg.Weather, logger)
}

func provideMemoryForecastCache(cfg *config.Config, logger *slog.Logger) *forecastcache.MemoryCache {
	return forecastcache.NewMemoryCache(cfg.Weather.Cache.SweepInterval, logger)
}

// provideForecastCache prefers Valkey and falls back to the swept memory cache.
func provideForecastCache(cfg *config.Config, memory *forecastcache.MemoryCache, logger *slog.Logger) advisor.ForecastCache {
	cacheCfg := cfg.Weather.Cache
	if !cacheCfg.Enabled || cacheCfg.TTL <= 0 {
		logger.Info("forecast cache disabled")
		return nil
	}
	if cacheCfg.Valkey.Enabled {
		opt, err := buildValkeyOptions(cacheCfg.Valkey.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return memory
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return memory
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
			client.Close()
		} else {
			logger.Info("forecast valkey cache enabled", "addr", cacheCfg.Valkey.Addr)
			return forecastcache.NewValkeyCache(client, cacheCfg.Valkey.Prefix)
		}
	}
	return memory
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(addr, "://") {
		opt, err = valkey.ParseURL(addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}
