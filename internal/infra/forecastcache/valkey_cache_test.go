package forecastcache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go/mock"
	"go.uber.org/mock/gomock"

	"github.com/yanqian/fishai-advisor/internal/domain/advisor"
)

func TestValkeyCacheMissIsNotAnError(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)
	client.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "forecast:oslo,no")).
		Return(mock.Result(mock.ValkeyNil()))

	cache := NewValkeyCache(client, "")
	_, ok, err := cache.Get(context.Background(), "oslo,no")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestValkeyCacheGetSurfacesTransportErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)
	client.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "fishai:oslo,no")).
		Return(mock.ErrorResult(errors.New("connection reset")))

	cache := NewValkeyCache(client, "fishai")
	_, ok, err := cache.Get(context.Background(), "oslo,no")
	require.Error(t, err)
	require.False(t, ok)
}

func TestValkeyCacheSetRoundsShortTTLUpToOneSecond(t *testing.T) {
	report := advisor.WeatherReport{City: "Oslo", Country: "NO"}
	payload, err := json.Marshal(report)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)
	client.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "forecast:oslo,no", string(payload), "EX", "1")).
		Return(mock.Result(mock.ValkeyString("OK")))

	cache := NewValkeyCache(client, "forecast")
	require.NoError(t, cache.Set(context.Background(), "oslo,no", report, 200*time.Millisecond))
}

func TestValkeyCacheSetWithoutTTLOmitsExpiry(t *testing.T) {
	report := advisor.WeatherReport{City: "Bergen"}
	payload, err := json.Marshal(report)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)
	client.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "forecast:bergen", string(payload))).
		Return(mock.Result(mock.ValkeyString("OK")))

	cache := NewValkeyCache(client, "forecast")
	require.NoError(t, cache.Set(context.Background(), "bergen", report, 0))
}

func TestValkeyCacheKeepsLocalOffsetForNoonSelection(t *testing.T) {
	tokyo := time.FixedZone("+0900", 9*60*60)
	report := advisor.WeatherReport{
		City:    "Tokyo",
		Country: "JP",
		Samples: []advisor.ForecastSample{
			{Time: time.Date(2024, 7, 1, 0, 0, 0, 0, tokyo), Description: "midnight"},
			{Time: time.Date(2024, 7, 1, 12, 0, 0, 0, tokyo), Description: "noon"},
			{Time: time.Date(2024, 7, 1, 21, 0, 0, 0, tokyo), Description: "evening"},
		},
	}
	payload, err := json.Marshal(report)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)
	client.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "forecast:tokyo,jp")).
		Return(mock.Result(mock.ValkeyString(string(payload))))

	cache := NewValkeyCache(client, "forecast")
	got, ok, err := cache.Get(context.Background(), "tokyo,jp")
	require.NoError(t, err)
	require.True(t, ok)

	_, offset := got.Samples[1].Time.Zone()
	require.Equal(t, 9*60*60, offset)
	require.Equal(t, 12, got.Samples[1].Time.Hour())

	summary := advisor.SummarizeForecast(got, 5)
	require.Len(t, summary.Daily, 1)
	require.Equal(t, "2024-07-01", summary.Daily[0].Date)
	require.Equal(t, "noon", summary.Daily[0].Description)
}

func TestValkeyCacheRejectsCorruptPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)
	client.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "forecast:oslo,no")).
		Return(mock.Result(mock.ValkeyString("{not json")))

	cache := NewValkeyCache(client, "forecast")
	_, ok, err := cache.Get(context.Background(), "oslo,no")
	require.Error(t, err)
	require.False(t, ok)
}
