package advisor

import (
	"time"

	"github.com/yanqian/fishai-advisor/pkg/metrics"
)

// Endpoint names used as rate-limit scopes.
const (
	EndpointEvaluateFish  = "evaluate-fish"
	EndpointChat          = "chat"
	EndpointTackleAdvice  = "tackle-advice"
	EndpointWeatherAdvice = "weather-advice"
)

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single transcript entry.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Quota is the outcome of a rate-limit check.
type Quota struct {
	Allowed   bool      `json:"-"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

// PhotoRequest is a fish photo submitted for evaluation.
type PhotoRequest struct {
	Photo     []byte
	MimeType  string
	Filename  string
	Location  string
	WaterType string
	GearNotes string
}

// FishEvaluation is the normalized verdict for a catch photo.
type FishEvaluation struct {
	SpeciesGuess      string   `json:"species_guess"`
	Confidence        float64  `json:"confidence"`
	EstimatedWeightKg *float64 `json:"estimated_weight_kg"`
	EstimatedLengthCm *float64 `json:"estimated_length_cm"`
	FishScore         int      `json:"fish_score"`
	ReasoningShort    string   `json:"reasoning_short"`
	Tips              []string `json:"tips"`
	MemeLine          string   `json:"meme_line"`
	Disclaimers       []string `json:"disclaimers"`
}

// PhotoResponse wraps an evaluation with request metadata.
type PhotoResponse struct {
	ID          string         `json:"id"`
	Evaluation  FishEvaluation `json:"evaluation"`
	Degraded    bool           `json:"degraded"`
	Location    string         `json:"location_text,omitempty"`
	WaterType   string         `json:"water_type,omitempty"`
	GearNotes   string         `json:"gear_notes,omitempty"`
	EvaluatedAt time.Time      `json:"evaluated_at"`
	Quota       Quota          `json:"-"`
}

// ChatRequest is a single user message for the NPC chat.
type ChatRequest struct {
	SessionID string       `json:"session_id"`
	Content   string       `json:"content"`
	Context   *ChatContext `json:"context,omitempty"`
}

// ChatContext carries optional player stats folded into the system prompt.
type ChatContext struct {
	Catches   int    `json:"catches"`
	BestScore int    `json:"best_score"`
	Gear      string `json:"gear"`
}

// ChatResponse is the assistant reply for a session.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Quota     Quota  `json:"-"`
}

// TackleRequest is a fishing loadout; every field is optional.
type TackleRequest struct {
	Rod            string   `json:"rod,omitempty"`
	Reel           string   `json:"reel,omitempty"`
	LineType       string   `json:"line_type,omitempty"`
	LineStrengthLb *float64 `json:"line_strength_lb,omitempty"`
	HookType       string   `json:"hook_type,omitempty"`
	HookSize       string   `json:"hook_size,omitempty"`
	BaitOrLure     string   `json:"bait_or_lure,omitempty"`
	TargetSpecies  string   `json:"target_species,omitempty"`
	WaterType      string   `json:"water_type,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// TackleAdvice is the normalized loadout critique.
type TackleAdvice struct {
	LoadoutScore     int              `json:"loadout_score"`
	Summary          string           `json:"summary"`
	Improvements     []string         `json:"improvements"`
	MemeLine         string           `json:"meme_line"`
	RecommendedSetup RecommendedSetup `json:"recommended_setup"`
}

// RecommendedSetup lists suggested gear; nil entries mean no suggestion.
type RecommendedSetup struct {
	Rod  *string `json:"rod"`
	Reel *string `json:"reel"`
	Line *string `json:"line"`
	Hook *string `json:"hook"`
	Bait *string `json:"bait"`
}

// TackleResponse wraps tackle advice.
type TackleResponse struct {
	Advice TackleAdvice `json:"advice"`
	Quota  Quota        `json:"-"`
}

// WeatherRequest asks for fishing advice at a location.
type WeatherRequest struct {
	City          string `json:"city"`
	Country       string `json:"country,omitempty"`
	WaterType     string `json:"water_type,omitempty"`
	TargetSpecies string `json:"target_species,omitempty"`
}

// WeatherAdvice is the normalized fishing-conditions advice.
type WeatherAdvice struct {
	BestTimes            []string `json:"best_times"`
	RecommendedBait      []string `json:"recommended_bait"`
	RecommendedDepth     string   `json:"recommended_depth"`
	RecommendedTechnique string   `json:"recommended_technique"`
	Reasoning            string   `json:"reasoning"`
	MemeLine             string   `json:"meme_line"`
	Disclaimers          []string `json:"disclaimers"`
}

// WeatherResponse combines the forecast with the advice derived from it.
type WeatherResponse struct {
	Forecast ForecastSummary `json:"forecast"`
	WeatherAdvice
	Quota Quota `json:"-"`
}

// WeatherReport is the raw provider data consumed by the forecast aggregator.
type WeatherReport struct {
	City    string            `json:"city"`
	Country string            `json:"country"`
	Current CurrentConditions `json:"current"`
	Samples []ForecastSample  `json:"samples"`
}

// CurrentConditions are provider readings in metric units.
type CurrentConditions struct {
	TempC       float64 `json:"tempC"`
	Humidity    int     `json:"humidity"`
	WindSpeedMS float64 `json:"windSpeedMs"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

// ForecastSample is one point of a multi-point forecast series.
type ForecastSample struct {
	Time        time.Time `json:"time"`
	TempMinC    float64   `json:"tempMinC"`
	TempMaxC    float64   `json:"tempMaxC"`
	WindSpeedMS float64   `json:"windSpeedMs"`
	// PrecipProbability is in [0,1].
	PrecipProbability float64 `json:"pop"`
	Description       string  `json:"description"`
	Icon              string  `json:"icon"`
}

// ForecastSummary is the per-day reduction of a forecast series.
type ForecastSummary struct {
	City    string         `json:"city"`
	Country string         `json:"country"`
	Current CurrentSummary `json:"current"`
	Daily   []DailySummary `json:"daily"`
}

// CurrentSummary is the rounded current conditions.
type CurrentSummary struct {
	TempC        int    `json:"temp_c"`
	Humidity     int    `json:"humidity"`
	WindSpeedKmh int    `json:"wind_speed_kmh"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
}

// DailySummary is the near-noon sample chosen for a calendar date.
type DailySummary struct {
	Date         string `json:"date"`
	TempMinC     int    `json:"temp_min_c"`
	TempMaxC     int    `json:"temp_max_c"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	WindSpeedKmh int    `json:"wind_speed_kmh"`
	// PrecipitationProbability is a percentage in [0,100].
	PrecipitationProbability int `json:"pop"`
}

// Prompt is a single stateless request to the advisory model.
type Prompt struct {
	System    string
	Messages  []Message
	MaxTokens int
}

// Message is one model input message, optionally carrying an inline image.
type Message struct {
	Role  Role
	Text  string
	Image *Image
}

// Image is an inline image attachment.
type Image struct {
	MimeType string
	Data     []byte
}

// Completion is the raw model output.
type Completion struct {
	Text  string
	Usage metrics.TokenUsage
}

// Config wires runtime knobs for the advisor domain.
type Config struct {
	SystemPrompt     string
	MaxTokens        int
	ChatMaxTokens    int
	VisionTimeout    time.Duration
	TextTimeout      time.Duration
	WeatherTimeout   time.Duration
	MaxPhotoBytes    int64
	ContextTurns     int
	ForecastDays     int
	ForecastCacheTTL time.Duration
}
