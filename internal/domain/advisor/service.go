package advisor

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/fishai-advisor/pkg/errors"
	"github.com/yanqian/fishai-advisor/pkg/util"
)

// Service exposes the advisory flows. clientID scopes rate limiting.
type Service interface {
	EvaluatePhoto(ctx context.Context, clientID string, req PhotoRequest) (PhotoResponse, error)
	Chat(ctx context.Context, clientID string, req ChatRequest) (ChatResponse, error)
	TackleAdvice(ctx context.Context, clientID string, req TackleRequest) (TackleResponse, error)
	WeatherAdvice(ctx context.Context, clientID string, req WeatherRequest) (WeatherResponse, error)
}

type service struct {
	cfg      Config
	limiter  RateLimiter
	sessions SessionStore
	model    Model
	weather  WeatherProvider
	cache    ForecastCache
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewService wires up the advisory orchestrator. cache may be nil.
func NewService(cfg Config, limiter RateLimiter, sessions SessionStore, model Model, weather WeatherProvider, cache ForecastCache, logger *slog.Logger) Service {
	return &service{
		cfg:      cfg,
		limiter:  limiter,
		sessions: sessions,
		model:    model,
		weather:  weather,
		cache:    cache,
		logger:   logger.With("component", "advisor.service"),
		now:      util.NowUTC,
		newID:    uuid.NewString,
	}
}

func (s *service) EvaluatePhoto(ctx context.Context, clientID string, req PhotoRequest) (PhotoResponse, error) {
	if err := validatePhoto(&req, s.cfg.MaxPhotoBytes); err != nil {
		return PhotoResponse{}, err
	}
	quota, err := s.admit(clientID, EndpointEvaluateFish)
	if err != nil {
		return PhotoResponse{}, err
	}

	raw, degraded, err := s.evaluate(ctx, req)
	if err != nil {
		return PhotoResponse{}, err
	}
	eval, err := ParseFishEvaluation(raw)
	if err != nil {
		return PhotoResponse{}, s.malformed(EndpointEvaluateFish, raw, err)
	}
	if degraded {
		notices := append([]string{degradedPhotoNotice}, eval.Disclaimers...)
		eval.Disclaimers = truncateList(normalizeList(notices), maxFishDisclaimers)
	}

	s.logger.Info("fish evaluated", "species", eval.SpeciesGuess, "score", eval.FishScore, "degraded", degraded)
	return PhotoResponse{
		ID:          s.newID(),
		Evaluation:  eval,
		Degraded:    degraded,
		Location:    req.Location,
		WaterType:   req.WaterType,
		GearNotes:   req.GearNotes,
		EvaluatedAt: s.now(),
		Quota:       quota,
	}, nil
}

// evaluate runs the vision call and, when it fails, exactly one text-only
// fallback. It reports whether the fallback produced the output.
func (s *service) evaluate(ctx context.Context, req PhotoRequest) (string, bool, error) {
	vision := Prompt{
		System: s.buildSystemPrompt(),
		Messages: []Message{{
			Role:  RoleUser,
			Text:  visionPrompt(req),
			Image: &Image{MimeType: req.MimeType, Data: req.Photo},
		}},
		MaxTokens: s.cfg.MaxTokens,
	}
	completion, err := s.complete(ctx, s.cfg.VisionTimeout, "vision", vision)
	if err == nil {
		return completion.Text, false, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", false, apperrors.Wrap(apperrors.CodeProviderUnavailable, "fish evaluation cancelled", ctxErr)
	}
	s.logger.Warn("vision evaluation failed, falling back to text", "error", err)

	fallback := Prompt{
		System:    s.buildSystemPrompt(),
		Messages:  []Message{{Role: RoleUser, Text: degradedPrompt(req)}},
		MaxTokens: s.cfg.MaxTokens,
	}
	completion, err = s.complete(ctx, s.cfg.TextTimeout, "vision_fallback", fallback)
	if err != nil {
		s.logger.Error("text fallback evaluation failed", "error", err)
		return "", true, apperrors.Wrap(apperrors.CodeProviderUnavailable, "fish evaluation unavailable", err)
	}
	return completion.Text, true, nil
}

func (s *service) Chat(ctx context.Context, clientID string, req ChatRequest) (ChatResponse, error) {
	if err := validateChat(&req); err != nil {
		return ChatResponse{}, err
	}
	quota, err := s.admit(clientID, EndpointChat)
	if err != nil {
		return ChatResponse{}, err
	}

	sessionID, _, created := s.sessions.GetOrCreate(req.SessionID)
	if created {
		defer func() {
			if evicted := s.sessions.EvictIfOverCapacity(); evicted > 0 {
				s.logger.Info("chat sessions evicted", "count", evicted)
			}
		}()
	}
	userTurn := Turn{Role: RoleUser, Content: req.Content}
	window := []Turn{userTurn}
	if s.sessions.Append(sessionID, userTurn) {
		window = s.sessions.RecentWindow(sessionID, s.cfg.ContextTurns)
	} else {
		s.logger.Warn("chat session evicted before the user turn was stored", "session", sessionID)
	}
	messages := make([]Message, 0, len(window))
	for _, turn := range window {
		messages = append(messages, Message{Role: turn.Role, Text: turn.Content})
	}
	completion, err := s.complete(ctx, s.cfg.TextTimeout, EndpointChat, Prompt{
		System:    chatSystemPrompt(s.buildSystemPrompt(), req.Context),
		Messages:  messages,
		MaxTokens: s.cfg.ChatMaxTokens,
	})
	if err != nil {
		return ChatResponse{}, apperrors.Wrap(apperrors.CodeProviderUnavailable, "chat model unavailable", err)
	}

	reply := strings.TrimSpace(completion.Text)
	if reply == "" {
		reply = defaultChatReply
	}
	if !s.sessions.Append(sessionID, Turn{Role: RoleAssistant, Content: reply}) {
		s.logger.Warn("chat session evicted during the exchange, reply not stored", "session", sessionID)
	}
	return ChatResponse{SessionID: sessionID, Message: reply, Quota: quota}, nil
}

func (s *service) TackleAdvice(ctx context.Context, clientID string, req TackleRequest) (TackleResponse, error) {
	if err := validateTackle(&req); err != nil {
		return TackleResponse{}, err
	}
	quota, err := s.admit(clientID, EndpointTackleAdvice)
	if err != nil {
		return TackleResponse{}, err
	}

	completion, err := s.complete(ctx, s.cfg.TextTimeout, EndpointTackleAdvice, Prompt{
		System:    s.buildSystemPrompt(),
		Messages:  []Message{{Role: RoleUser, Text: tacklePrompt(req)}},
		MaxTokens: s.cfg.MaxTokens,
	})
	if err != nil {
		return TackleResponse{}, apperrors.Wrap(apperrors.CodeProviderUnavailable, "tackle advisor unavailable", err)
	}
	advice, err := ParseTackleAdvice(completion.Text)
	if err != nil {
		return TackleResponse{}, s.malformed(EndpointTackleAdvice, completion.Text, err)
	}
	return TackleResponse{Advice: advice, Quota: quota}, nil
}

func (s *service) WeatherAdvice(ctx context.Context, clientID string, req WeatherRequest) (WeatherResponse, error) {
	if err := validateWeather(&req); err != nil {
		return WeatherResponse{}, err
	}
	quota, err := s.admit(clientID, EndpointWeatherAdvice)
	if err != nil {
		return WeatherResponse{}, err
	}

	report, err := s.loadReport(ctx, req.City, req.Country)
	if err != nil {
		return WeatherResponse{}, apperrors.Wrap(apperrors.CodeProviderUnavailable, "weather provider unavailable", err)
	}
	summary := SummarizeForecast(report, s.cfg.ForecastDays)
	if summary.City == "" {
		summary.City = req.City
	}
	s.logger.Info("forecast summarized", "city", summary.City, "days", len(summary.Daily))

	completion, err := s.complete(ctx, s.cfg.TextTimeout, EndpointWeatherAdvice, Prompt{
		System:    s.buildSystemPrompt(),
		Messages:  []Message{{Role: RoleUser, Text: weatherPrompt(req, summary)}},
		MaxTokens: s.cfg.MaxTokens,
	})
	if err != nil {
		return WeatherResponse{}, apperrors.Wrap(apperrors.CodeProviderUnavailable, "weather advisor unavailable", err)
	}
	advice, err := ParseWeatherAdvice(completion.Text)
	if err != nil {
		return WeatherResponse{}, s.malformed(EndpointWeatherAdvice, completion.Text, err)
	}
	return WeatherResponse{Forecast: summary, WeatherAdvice: advice, Quota: quota}, nil
}

func (s *service) admit(clientID, endpoint string) (Quota, error) {
	quota := s.limiter.Check(clientID, endpoint)
	if !quota.Allowed {
		s.logger.Warn("rate limit exceeded", "client", clientID, "endpoint", endpoint, "resetAt", quota.ResetAt)
		return quota, apperrors.Wrap(apperrors.CodeRateLimited, "rate limit exceeded", &CooldownError{Endpoint: endpoint, Quota: quota})
	}
	return quota, nil
}

func (s *service) complete(ctx context.Context, timeout time.Duration, operation string, prompt Prompt) (Completion, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	completion, err := s.model.Complete(ctx, prompt)
	if err != nil {
		return Completion{}, err
	}
	s.logger.Debug("advisor model usage",
		"operation", operation,
		"promptTokens", completion.Usage.PromptTokens,
		"completionTokens", completion.Usage.CompletionTokens,
		"totalTokens", completion.Usage.TotalTokens,
		"estimated", completion.Usage.Estimated,
	)
	return completion, nil
}

func (s *service) malformed(operation, raw string, err error) error {
	s.logger.Error("model returned malformed response", "operation", operation, "excerpt", excerpt(raw))
	return apperrors.Wrap(apperrors.CodeMalformedResponse, "advisor returned an unreadable answer", err)
}

// loadReport serves weather reports from the cache when possible. Cache
// failures are logged and bypassed.
func (s *service) loadReport(ctx context.Context, city, country string) (WeatherReport, error) {
	key := forecastKey(city, country)
	if s.cache != nil {
		report, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn("forecast cache read failed", "key", key, "error", err)
		case ok:
			s.logger.Debug("forecast cache hit", "key", key)
			return report, nil
		}
	}

	fetchCtx := ctx
	if s.cfg.WeatherTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.cfg.WeatherTimeout)
		defer cancel()
	}
	report, err := s.weather.Fetch(fetchCtx, city, country)
	if err != nil {
		return WeatherReport{}, err
	}
	if s.cache != nil && s.cfg.ForecastCacheTTL > 0 {
		if err := s.cache.Set(ctx, key, report, s.cfg.ForecastCacheTTL); err != nil {
			s.logger.Warn("forecast cache write failed", "key", key, "error", err)
		}
	}
	return report, nil
}

func forecastKey(city, country string) string {
	key := strings.ToLower(strings.TrimSpace(city))
	if c := strings.ToLower(strings.TrimSpace(country)); c != "" {
		key += "," + c
	}
	return key
}
