package advisor

import (
	"math"
	"strings"
)

const (
	defaultForecastDays = 5
	fallbackDescription = "unknown"
	fallbackIcon        = "01d"
	msToKmh             = 3.6
)

// SummarizeForecast reduces a forecast series to at most maxDays entries, one
// per calendar date, each built from the sample nearest to local noon. Dates
// and hours come from each sample's timestamp in the location it carries.
// Dates are emitted in first-seen order.
func SummarizeForecast(report WeatherReport, maxDays int) ForecastSummary {
	if maxDays <= 0 {
		maxDays = defaultForecastDays
	}

	var (
		order  []string
		chosen = make(map[string]ForecastSample)
	)
	for _, sample := range report.Samples {
		date := sample.Time.Format("2006-01-02")
		current, ok := chosen[date]
		if !ok {
			order = append(order, date)
			chosen[date] = sample
			continue
		}
		if noonDistance(sample) < noonDistance(current) {
			chosen[date] = sample
		}
	}

	if len(order) > maxDays {
		order = order[:maxDays]
	}
	daily := make([]DailySummary, 0, len(order))
	for _, date := range order {
		s := chosen[date]
		daily = append(daily, DailySummary{
			Date:                     date,
			TempMinC:                 roundInt(s.TempMinC),
			TempMaxC:                 roundInt(s.TempMaxC),
			Description:              orDefault(s.Description, fallbackDescription),
			Icon:                     orDefault(s.Icon, fallbackIcon),
			WindSpeedKmh:             roundInt(s.WindSpeedMS * msToKmh),
			PrecipitationProbability: roundInt(clamp(s.PrecipProbability, 0, 1) * 100),
		})
	}

	return ForecastSummary{
		City:    report.City,
		Country: report.Country,
		Current: CurrentSummary{
			TempC:        roundInt(report.Current.TempC),
			Humidity:     report.Current.Humidity,
			WindSpeedKmh: roundInt(report.Current.WindSpeedMS * msToKmh),
			Description:  orDefault(report.Current.Description, fallbackDescription),
			Icon:         orDefault(report.Current.Icon, fallbackIcon),
		},
		Daily: daily,
	}
}

func noonDistance(s ForecastSample) int {
	d := s.Time.Hour() - 12
	if d < 0 {
		return -d
	}
	return d
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func orDefault(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}
