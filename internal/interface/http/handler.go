package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/fishai-advisor/internal/domain/advisor"
	"github.com/yanqian/fishai-advisor/internal/infra/config"
	apperrors "github.com/yanqian/fishai-advisor/pkg/errors"
)

const cooldownMessage = "Rate limit exceeded. The NPC needs a break, survivor."

// Handler wires the HTTP transport to the advisory service.
type Handler struct {
	advisorSvc     advisor.Service
	maxUploadBytes int64
	logger         *slog.Logger
	now            func() time.Time
}

// NewHandler constructs the root HTTP handler.
func NewHandler(cfg *config.Config, advisorSvc advisor.Service, logger *slog.Logger) *Handler {
	return &Handler{
		advisorSvc:     advisorSvc,
		maxUploadBytes: cfg.HTTP.MaxUploadBytes,
		logger:         logger.With("component", "http.handler"),
		now:            time.Now,
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// EvaluateFish accepts a multipart photo upload and returns the NPC verdict.
func (h *Handler) EvaluateFish(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	var req advisor.PhotoRequest
	file, header, err := c.Request.FormFile("photo")
	switch {
	case err == nil:
		defer file.Close()
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "could not read photo", readErr))
			return
		}
		req.Photo = data
		req.Filename = header.Filename
		req.MimeType = header.Header.Get("Content-Type")
	case errors.Is(err, http.ErrMissingFile):
	default:
		h.failUpload(c, err)
		return
	}
	req.Location = c.PostForm("location_text")
	req.WaterType = c.PostForm("water_type")
	req.GearNotes = c.PostForm("gear_notes")

	resp, err := h.advisorSvc.EvaluatePhoto(c.Request.Context(), c.ClientIP(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	setQuotaHeaders(c, resp.Quota)
	c.JSON(http.StatusCreated, resp)
}

// Chat handles one NPC chat exchange.
func (h *Handler) Chat(c *gin.Context) {
	var req advisor.ChatRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.advisorSvc.Chat(c.Request.Context(), c.ClientIP(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	setQuotaHeaders(c, resp.Quota)
	c.JSON(http.StatusOK, resp)
}

// TackleAdvice critiques a fishing loadout.
func (h *Handler) TackleAdvice(c *gin.Context) {
	var req advisor.TackleRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.advisorSvc.TackleAdvice(c.Request.Context(), c.ClientIP(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	setQuotaHeaders(c, resp.Quota)
	c.JSON(http.StatusOK, resp)
}

// WeatherAdvice returns the forecast summary with fishing advice.
func (h *Handler) WeatherAdvice(c *gin.Context) {
	var req advisor.WeatherRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.advisorSvc.WeatherAdvice(c.Request.Context(), c.ClientIP(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	setQuotaHeaders(c, resp.Quota)
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) bind(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "request body must be valid JSON", err))
		return false
	}
	return true
}

// fail renders cooldowns directly; every other failure goes through the
// error middleware.
func (h *Handler) fail(c *gin.Context, err error) {
	var cooldown *advisor.CooldownError
	if errors.As(err, &cooldown) {
		setQuotaHeaders(c, cooldown.Quota)
		c.Header("Retry-After", strconv.Itoa(cooldown.RetryAfter(h.now())))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": gin.H{
				"code":    "cooldown",
				"message": cooldownMessage,
				"resetAt": cooldown.Quota.ResetAt.UTC().Format(time.RFC3339),
			},
		})
		return
	}
	abortWithError(c, asHTTPError(err))
}

func (h *Handler) failUpload(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		httpErr := NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "upload too large", err)
		httpErr.Fields = map[string]string{"photo": fmt.Sprintf("must be at most %d bytes", tooLarge.Limit)}
		abortWithError(c, httpErr)
		return
	}
	abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "request must be multipart/form-data", err))
}

func setQuotaHeaders(c *gin.Context, quota advisor.Quota) {
	if quota.Limit <= 0 {
		return
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(quota.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(quota.Remaining))
	c.Header("X-RateLimit-Reset", quota.ResetAt.UTC().Format(time.RFC3339))
}
