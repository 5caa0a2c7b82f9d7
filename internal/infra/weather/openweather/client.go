package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yanqian/fishai-advisor/internal/domain/advisor"
	"github.com/yanqian/fishai-advisor/internal/infra/config"
)

const (
	defaultBaseURL = "https://api.openweathermap.org/data/2.5"
	defaultTimeout = 10 * time.Second
)

// Client fetches current conditions and the 3-hourly forecast from OpenWeather.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds an API client.
func NewClient(cfg config.WeatherConfig, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openweather api key cannot be empty")
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(base, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With("component", "openweather.client"),
	}, nil
}

// Fetch retrieves current conditions and the forecast in parallel. A failed
// forecast degrades to an empty series; a failed current lookup is an error.
func (c *Client) Fetch(ctx context.Context, city, country string) (advisor.WeatherReport, error) {
	query := strings.TrimSpace(city)
	if country = strings.TrimSpace(country); country != "" {
		query += "," + country
	}

	var (
		current     currentResponse
		forecast    forecastResponse
		forecastErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.get(gctx, "weather", query, &current)
	})
	g.Go(func() error {
		forecastErr = c.get(gctx, "forecast", query, &forecast)
		return nil
	})
	if err := g.Wait(); err != nil {
		return advisor.WeatherReport{}, err
	}
	if forecastErr != nil {
		c.logger.Warn("forecast unavailable, continuing with current conditions", "query", query, "error", forecastErr)
		forecast = forecastResponse{}
	}

	report := normalize(current, forecast)
	if report.City == "" {
		report.City = strings.TrimSpace(city)
	}
	if report.Country == "" {
		report.Country = country
	}
	return report, nil
}

func (c *Client) get(ctx context.Context, path, query string, out any) error {
	params := url.Values{}
	params.Set("q", query)
	params.Set("units", "metric")
	params.Set("appid", c.apiKey)
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("%s request error: status=%d body=%s", path, resp.StatusCode, string(payload))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

type condition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []condition `json:"weather"`
	Sys     struct {
		Country string `json:"country"`
	} `json:"sys"`
}

type forecastItem struct {
	Dt   int64 `json:"dt"`
	Main struct {
		TempMin float64 `json:"temp_min"`
		TempMax float64 `json:"temp_max"`
	} `json:"main"`
	Weather []condition `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Pop float64 `json:"pop"`
}

type forecastResponse struct {
	List []forecastItem `json:"list"`
	City struct {
		Name     string `json:"name"`
		Country  string `json:"country"`
		Timezone int    `json:"timezone"`
	} `json:"city"`
}

// normalize maps provider payloads onto the domain report. Sample times are
// placed in the city's UTC offset so dates and hours are local.
func normalize(current currentResponse, forecast forecastResponse) advisor.WeatherReport {
	zone := time.FixedZone("", forecast.City.Timezone)
	samples := make([]advisor.ForecastSample, 0, len(forecast.List))
	for _, item := range forecast.List {
		cond := firstCondition(item.Weather)
		samples = append(samples, advisor.ForecastSample{
			Time:              time.Unix(item.Dt, 0).In(zone),
			TempMinC:          item.Main.TempMin,
			TempMaxC:          item.Main.TempMax,
			WindSpeedMS:       item.Wind.Speed,
			PrecipProbability: item.Pop,
			Description:       cond.Description,
			Icon:              cond.Icon,
		})
	}

	cond := firstCondition(current.Weather)
	return advisor.WeatherReport{
		City:    firstNonEmpty(current.Name, forecast.City.Name),
		Country: firstNonEmpty(current.Sys.Country, forecast.City.Country),
		Current: advisor.CurrentConditions{
			TempC:       current.Main.Temp,
			Humidity:    current.Main.Humidity,
			WindSpeedMS: current.Wind.Speed,
			Description: cond.Description,
			Icon:        cond.Icon,
		},
		Samples: samples,
	}
}

func firstCondition(conditions []condition) condition {
	if len(conditions) == 0 {
		return condition{}
	}
	return conditions[0]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var _ advisor.WeatherProvider = (*Client)(nil)
