package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LLM providers understood by the advisor wiring.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	LLM       LLMConfig       `yaml:"llm"`
	Advisor   AdvisorConfig   `yaml:"advisor"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Chat      ChatConfig      `yaml:"chat"`
	Weather   WeatherConfig   `yaml:"weather"`
	Log       LogConfig       `yaml:"log"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string        `yaml:"address" env:"HTTP_ADDRESS"`
	ReadTimeout    time.Duration `yaml:"readTimeout" env:"HTTP_READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"writeTimeout" env:"HTTP_WRITE_TIMEOUT"`
	TrustedProxies []string      `yaml:"trustedProxies" env:"HTTP_TRUSTED_PROXIES" envSeparator:","`
	AllowedOrigins []string      `yaml:"allowedOrigins" env:"HTTP_ALLOWED_ORIGINS" envSeparator:","`
	MaxUploadBytes int64         `yaml:"maxUploadBytes" env:"HTTP_MAX_UPLOAD_BYTES"`
}

// LLMConfig selects and configures the advisory model provider.
type LLMConfig struct {
	Provider      string  `yaml:"provider" env:"LLM_PROVIDER"`
	APIKey        string  `yaml:"apiKey" env:"LLM_API_KEY"`
	BaseURL       string  `yaml:"baseUrl" env:"LLM_BASE_URL"`
	Model         string  `yaml:"model" env:"LLM_MODEL"`
	Temperature   float32 `yaml:"temperature" env:"LLM_TEMPERATURE"`
	MaxTokens     int     `yaml:"maxTokens" env:"LLM_MAX_TOKENS"`
	ChatMaxTokens int     `yaml:"chatMaxTokens" env:"LLM_CHAT_MAX_TOKENS"`
	TokenEncoding string  `yaml:"tokenEncoding" env:"LLM_TOKEN_ENCODING"`
}

// AdvisorConfig drives the advisory orchestration.
type AdvisorConfig struct {
	SystemPrompt  string        `yaml:"systemPrompt" env:"ADVISOR_SYSTEM_PROMPT"`
	VisionTimeout time.Duration `yaml:"visionTimeout" env:"ADVISOR_VISION_TIMEOUT"`
	TextTimeout   time.Duration `yaml:"textTimeout" env:"ADVISOR_TEXT_TIMEOUT"`
	MaxPhotoBytes int64         `yaml:"maxPhotoBytes" env:"ADVISOR_MAX_PHOTO_BYTES"`
}

// RateLimitConfig drives the fixed-window limiter.
type RateLimitConfig struct {
	RequestsPerMinute int            `yaml:"requestsPerMinute" env:"RATE_LIMIT_AI_PER_MINUTE"`
	Window            time.Duration  `yaml:"window" env:"RATE_LIMIT_WINDOW"`
	SweepInterval     time.Duration  `yaml:"sweepInterval" env:"RATE_LIMIT_SWEEP_INTERVAL"`
	Endpoints         map[string]int `yaml:"endpoints" env:"RATE_LIMIT_ENDPOINTS"`
}

// ChatConfig bounds in-memory conversation state.
type ChatConfig struct {
	MaxSessions  int `yaml:"maxSessions" env:"CHAT_MAX_SESSIONS"`
	ContextTurns int `yaml:"contextTurns" env:"CHAT_CONTEXT_TURNS"`
}

// WeatherConfig contains OpenWeather settings.
type WeatherConfig struct {
	APIKey       string        `yaml:"apiKey" env:"OPENWEATHER_API_KEY"`
	BaseURL      string        `yaml:"baseUrl" env:"OPENWEATHER_BASE_URL"`
	Timeout      time.Duration `yaml:"timeout" env:"OPENWEATHER_TIMEOUT"`
	ForecastDays int           `yaml:"forecastDays" env:"WEATHER_FORECAST_DAYS"`
	Cache        CacheConfig   `yaml:"cache"`
}

// CacheConfig controls forecast caching.
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled" env:"WEATHER_CACHE_ENABLED"`
	TTL           time.Duration `yaml:"ttl" env:"WEATHER_CACHE_TTL"`
	SweepInterval time.Duration `yaml:"sweepInterval" env:"WEATHER_CACHE_SWEEP_INTERVAL"`
	Valkey        ValkeyConfig  `yaml:"valkey"`
}

// ValkeyConfig contains connection information for cache storage.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled" env:"WEATHER_CACHE_VALKEY_ENABLED"`
	Addr    string `yaml:"addr" env:"WEATHER_CACHE_VALKEY_ADDR"`
	Prefix  string `yaml:"prefix" env:"WEATHER_CACHE_VALKEY_PREFIX"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
	File  string `yaml:"file" env:"LOG_FILE"`
}

// Load reads configuration from a YAML file, an optional .env file and
// environment variables, in that order of precedence (last wins).
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   120 * time.Second,
			MaxUploadBytes: 11 << 20,
		},
		LLM: LLMConfig{
			Provider:      ProviderOpenAI,
			Model:         "gpt-4o-mini",
			Temperature:   0.7,
			MaxTokens:     1024,
			ChatMaxTokens: 512,
			TokenEncoding: "cl100k_base",
		},
		Advisor: AdvisorConfig{
			VisionTimeout: 45 * time.Second,
			TextTimeout:   30 * time.Second,
			MaxPhotoBytes: 10 << 20,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 10,
			Window:            time.Minute,
			SweepInterval:     5 * time.Minute,
		},
		Chat: ChatConfig{
			MaxSessions:  100,
			ContextTurns: 20,
		},
		Weather: WeatherConfig{
			BaseURL:      "https://api.openweathermap.org/data/2.5",
			Timeout:      10 * time.Second,
			ForecastDays: 5,
			Cache: CacheConfig{
				Enabled:       true,
				TTL:           10 * time.Minute,
				SweepInterval: 5 * time.Minute,
				Valkey: ValkeyConfig{
					Prefix: "forecast",
				},
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.MaxUploadBytes < c.Advisor.MaxPhotoBytes {
		return errors.New("http.maxUploadBytes must be at least advisor.maxPhotoBytes")
	}
	if c.HTTP.WriteTimeout > 0 && c.HTTP.WriteTimeout < c.Advisor.VisionTimeout+c.Advisor.TextTimeout {
		return errors.New("http.writeTimeout must cover the vision and fallback timeouts")
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic:
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			return fmt.Errorf("llm.apiKey is required for provider %q", c.LLM.Provider)
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("unsupported llm.provider %q", c.LLM.Provider)
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	if c.LLM.MaxTokens <= 0 || c.LLM.ChatMaxTokens <= 0 {
		return errors.New("llm.maxTokens and llm.chatMaxTokens must be positive")
	}
	if c.Advisor.VisionTimeout <= 0 || c.Advisor.TextTimeout <= 0 {
		return errors.New("advisor timeouts must be positive")
	}
	if c.Advisor.MaxPhotoBytes <= 0 {
		return errors.New("advisor.maxPhotoBytes must be positive")
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		return errors.New("rateLimit.requestsPerMinute must be positive")
	}
	if c.RateLimit.Window <= 0 || c.RateLimit.SweepInterval <= 0 {
		return errors.New("rateLimit.window and rateLimit.sweepInterval must be positive")
	}
	for endpoint, limit := range c.RateLimit.Endpoints {
		if limit <= 0 {
			return fmt.Errorf("rateLimit.endpoints.%s must be positive", endpoint)
		}
	}
	if c.Chat.MaxSessions <= 0 || c.Chat.ContextTurns <= 0 {
		return errors.New("chat.maxSessions and chat.contextTurns must be positive")
	}
	if strings.TrimSpace(c.Weather.APIKey) == "" {
		return errors.New("weather.apiKey cannot be empty")
	}
	if c.Weather.ForecastDays <= 0 {
		return errors.New("weather.forecastDays must be positive")
	}
	if c.Weather.Cache.TTL < 0 || c.Weather.Cache.SweepInterval < 0 {
		return errors.New("weather.cache.ttl and weather.cache.sweepInterval cannot be negative")
	}
	if c.Weather.Cache.Valkey.Enabled && strings.TrimSpace(c.Weather.Cache.Valkey.Addr) == "" {
		return errors.New("weather.cache.valkey.addr cannot be empty when valkey cache is enabled")
	}
	return nil
}
