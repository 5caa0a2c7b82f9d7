package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/fishai-advisor/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
// Without trusted proxies the client address is the socket peer.
func NewRouter(cfg *config.Config, handler *Handler) (*http.Server, error) {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("configure trusted proxies: %w", err)
	}
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
	)

	router.GET("/healthz", handler.Health)

	api := router.Group("/api/v1/ai")
	{
		api.POST("/evaluate-fish", handler.EvaluateFish)
		api.POST("/chat", handler.Chat)
		api.POST("/tackle-advice", handler.TackleAdvice)
		api.POST("/weather-advice", handler.WeatherAdvice)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}, nil
}
