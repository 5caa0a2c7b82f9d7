package advisor

import (
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformedResponse reports model output without a decodable JSON object.
var ErrMalformedResponse = errors.New("model output contains no JSON object")

// Bounds applied to every normalized record.
const (
	maxFishTips          = 5
	maxFishDisclaimers   = 5
	maxImprovements      = 5
	maxBestTimes         = 5
	maxRecommendedBait   = 5
	maxWeatherDisclaimer = 3
	maxWeightKg          = 2000
	maxLengthCm          = 1000
)

// Defaults substituted for missing or ill-typed fields.
const (
	defaultSpecies         = "Unknown species"
	defaultFishReasoning   = "The NPC stares blankly."
	defaultFishMeme        = "...nice fish, I guess."
	defaultFishDisclaimer  = "AI estimates - take with a grain of salt (and lemon)."
	defaultTackleSummary   = "The NPC squints at your gear and shrugs."
	defaultTackleMeme      = "...at least you brought a rod."
	defaultDepth           = "unknown"
	defaultTechnique       = "whatever gets a bite"
	defaultWeatherReason   = "The NPC sniffs the wind and says nothing useful."
	defaultWeatherMeme     = "...rain or shine, fish gotta eat."
	defaultWeatherWarning  = "Weather-based estimates - conditions change fast."
	degradedPhotoNotice    = "No photo analysis - estimates are extra rough."
	defaultChatReply       = "...the NPC stares at you, confused."
	malformedExcerptLength = 300
)

// ParseFishEvaluation normalizes a fish evaluation from raw model output.
func ParseFishEvaluation(raw string) (FishEvaluation, error) {
	f, err := locate(raw)
	if err != nil {
		return FishEvaluation{}, err
	}
	return FishEvaluation{
		SpeciesGuess:      f.str("species_guess", defaultSpecies),
		Confidence:        f.float("confidence", 0, 0, 1),
		EstimatedWeightKg: f.optionalFloat("estimated_weight_kg", 0, maxWeightKg),
		EstimatedLengthCm: f.optionalFloat("estimated_length_cm", 0, maxLengthCm),
		FishScore:         f.integer("fish_score", 0, 0, 100),
		ReasoningShort:    f.str("reasoning_short", defaultFishReasoning),
		Tips:              f.list("tips", maxFishTips, nil),
		MemeLine:          f.str("meme_line", defaultFishMeme),
		Disclaimers:       f.list("disclaimers", maxFishDisclaimers, []string{defaultFishDisclaimer}),
	}, nil
}

// ParseTackleAdvice normalizes loadout advice from raw model output.
func ParseTackleAdvice(raw string) (TackleAdvice, error) {
	f, err := locate(raw)
	if err != nil {
		return TackleAdvice{}, err
	}
	return TackleAdvice{
		LoadoutScore: f.integer("loadout_score", 0, 0, 100),
		Summary:      f.str("summary", defaultTackleSummary),
		Improvements: f.list("improvements", maxImprovements, nil),
		MemeLine:     f.str("meme_line", defaultTackleMeme),
		RecommendedSetup: RecommendedSetup{
			Rod:  f.optionalString("recommended_setup.rod"),
			Reel: f.optionalString("recommended_setup.reel"),
			Line: f.optionalString("recommended_setup.line"),
			Hook: f.optionalString("recommended_setup.hook"),
			Bait: f.optionalString("recommended_setup.bait"),
		},
	}, nil
}

// ParseWeatherAdvice normalizes weather fishing advice from raw model output.
func ParseWeatherAdvice(raw string) (WeatherAdvice, error) {
	f, err := locate(raw)
	if err != nil {
		return WeatherAdvice{}, err
	}
	return WeatherAdvice{
		BestTimes:            f.list("best_times", maxBestTimes, nil),
		RecommendedBait:      f.list("recommended_bait", maxRecommendedBait, nil),
		RecommendedDepth:     f.str("recommended_depth", defaultDepth),
		RecommendedTechnique: f.str("recommended_technique", defaultTechnique),
		Reasoning:            f.str("reasoning", defaultWeatherReason),
		MemeLine:             f.str("meme_line", defaultWeatherMeme),
		Disclaimers:          f.list("disclaimers", maxWeatherDisclaimer, []string{defaultWeatherWarning}),
	}, nil
}

// extractObject returns the first complete JSON object in raw. Every '{' is a
// candidate start; the decoder stops at the end of the first value.
func extractObject(raw string) ([]byte, error) {
	for offset := 0; offset < len(raw); {
		idx := strings.IndexByte(raw[offset:], '{')
		if idx < 0 {
			break
		}
		start := offset + idx
		dec := json.NewDecoder(strings.NewReader(raw[start:]))
		var obj json.RawMessage
		if err := dec.Decode(&obj); err == nil {
			return obj, nil
		}
		offset = start + 1
	}
	return nil, ErrMalformedResponse
}

type fields struct {
	obj gjson.Result
}

func locate(raw string) (fields, error) {
	data, err := extractObject(raw)
	if err != nil {
		return fields{}, err
	}
	return fields{obj: gjson.ParseBytes(data)}, nil
}

func (f fields) str(path, def string) string {
	v := f.obj.Get(path)
	if v.Type != gjson.String {
		return def
	}
	if s := strings.TrimSpace(v.Str); s != "" {
		return s
	}
	return def
}

func (f fields) optionalString(path string) *string {
	v := f.obj.Get(path)
	if v.Type != gjson.String {
		return nil
	}
	s := strings.TrimSpace(v.Str)
	if s == "" {
		return nil
	}
	return &s
}

func (f fields) number(path string) (float64, bool) {
	v := f.obj.Get(path)
	if v.Type != gjson.Number {
		return 0, false
	}
	// Out-of-range literals such as 1e400 parse as ±Inf and clamp to a bound.
	n := v.Float()
	if math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

func (f fields) float(path string, def, lo, hi float64) float64 {
	n, ok := f.number(path)
	if !ok {
		n = def
	}
	return clamp(n, lo, hi)
}

func (f fields) integer(path string, def, lo, hi int) int {
	n, ok := f.number(path)
	if !ok {
		n = float64(def)
	}
	return int(clamp(math.Round(n), float64(lo), float64(hi)))
}

func (f fields) optionalFloat(path string, lo, hi float64) *float64 {
	n, ok := f.number(path)
	if !ok {
		return nil
	}
	n = clamp(n, lo, hi)
	return &n
}

// list accepts an array of strings or a single string; anything else yields def.
func (f fields) list(path string, limit int, def []string) []string {
	v := f.obj.Get(path)
	var items []string
	switch {
	case v.IsArray():
		for _, item := range v.Array() {
			if item.Type == gjson.String {
				items = append(items, item.Str)
			}
		}
	case v.Type == gjson.String:
		items = []string{v.Str}
	default:
		out := make([]string, len(def))
		copy(out, def)
		return out
	}
	return truncateList(normalizeList(items), limit)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{})
	for _, item := range items {
		clean := strings.TrimSpace(item)
		if clean == "" {
			continue
		}
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	return out
}

func truncateList(items []string, limit int) []string {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func excerpt(raw string) string {
	if len(raw) <= malformedExcerptLength {
		return raw
	}
	return raw[:malformedExcerptLength] + "..."
}
