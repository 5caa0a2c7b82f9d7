//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/fishai-advisor/internal/bootstrap"
	"github.com/yanqian/fishai-advisor/internal/domain/advisor"
	"github.com/yanqian/fishai-advisor/internal/infra/config"
	"github.com/yanqian/fishai-advisor/internal/infra/ratelimit"
	"github.com/yanqian/fishai-advisor/internal/infra/sessionstore"
	"github.com/yanqian/fishai-advisor/internal/infra/weather/openweather"
	httpiface "github.com/yanqian/fishai-advisor/internal/interface/http"
	"github.com/yanqian/fishai-advisor/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAdvisorConfig,
		provideTokenCounter,
		provideModel,
		provideRateLimiter,
		provideSessionStore,
		provideWeatherClient,
		provideMemoryForecastCache,
		provideForecastCache,
		advisor.NewService,
		wire.Bind(new(advisor.RateLimiter), new(*ratelimit.FixedWindow)),
		wire.Bind(new(advisor.SessionStore), new(*sessionstore.MemoryStore)),
		wire.Bind(new(advisor.WeatherProvider), new(*openweather.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
