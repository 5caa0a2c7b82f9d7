package advisor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFishEvaluationClampsAndTruncates(t *testing.T) {
	raw := `blah {"fish_score": 150, "tips": ["a","b","c","d","e","f"]} blah`

	eval, err := ParseFishEvaluation(raw)
	require.NoError(t, err)
	require.Equal(t, 100, eval.FishScore)
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, eval.Tips)
}

func TestParseFishEvaluationDefaults(t *testing.T) {
	eval, err := ParseFishEvaluation(`{"species_guess": "", "confidence": "high", "fish_score": null}`)
	require.NoError(t, err)
	require.Equal(t, defaultSpecies, eval.SpeciesGuess)
	require.Zero(t, eval.Confidence)
	require.Zero(t, eval.FishScore)
	require.Nil(t, eval.EstimatedWeightKg)
	require.Nil(t, eval.EstimatedLengthCm)
	require.Equal(t, defaultFishReasoning, eval.ReasoningShort)
	require.Equal(t, defaultFishMeme, eval.MemeLine)
	require.Empty(t, eval.Tips)
	require.NotNil(t, eval.Tips)
	require.Equal(t, []string{defaultFishDisclaimer}, eval.Disclaimers)
}

func TestParseFishEvaluationNormalizesNumbers(t *testing.T) {
	raw := "```json\n" + `{
  "species_guess": "Largemouth bass",
  "confidence": 1.7,
  "estimated_weight_kg": -2,
  "estimated_length_cm": 41.5,
  "fish_score": 72.5,
  "reasoning_short": "Solid bucketmouth.",
  "tips": "Try a jig",
  "meme_line": "Better loot than a military crate.",
  "disclaimers": []
}` + "\n```"

	eval, err := ParseFishEvaluation(raw)
	require.NoError(t, err)
	require.Equal(t, "Largemouth bass", eval.SpeciesGuess)
	require.Equal(t, 1.0, eval.Confidence)
	require.NotNil(t, eval.EstimatedWeightKg)
	require.Equal(t, 0.0, *eval.EstimatedWeightKg)
	require.Equal(t, 41.5, *eval.EstimatedLengthCm)
	require.Equal(t, 73, eval.FishScore)
	require.Equal(t, []string{"Try a jig"}, eval.Tips)
	require.Empty(t, eval.Disclaimers)
}

func TestParseFishEvaluationClampsOverflowingNumbers(t *testing.T) {
	raw := `{"fish_score": 1e400, "confidence": 5e999, "estimated_weight_kg": -1e400, "estimated_length_cm": 1e400}`

	eval, err := ParseFishEvaluation(raw)
	require.NoError(t, err)
	require.Equal(t, 100, eval.FishScore)
	require.Equal(t, 1.0, eval.Confidence)
	require.NotNil(t, eval.EstimatedWeightKg)
	require.Zero(t, *eval.EstimatedWeightKg)
	require.NotNil(t, eval.EstimatedLengthCm)
	require.Equal(t, float64(maxLengthCm), *eval.EstimatedLengthCm)

	advice, err := ParseTackleAdvice(`{"loadout_score": -1e400}`)
	require.NoError(t, err)
	require.Zero(t, advice.LoadoutScore)
}

func TestParseFishEvaluationNoObject(t *testing.T) {
	for _, raw := range []string{"", "the NPC refuses to answer", "} backwards {", "{not json at all"} {
		_, err := ParseFishEvaluation(raw)
		require.ErrorIs(t, err, ErrMalformedResponse, raw)
	}
}

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "braces inside strings",
			raw:  `Here you go: {"summary": "use a {weedless} rig", "x": 1} cheers`,
			want: `{"summary": "use a {weedless} rig", "x": 1}`,
		},
		{
			name: "first of several objects",
			raw:  `{"a": 1} and also {"b": 2}`,
			want: `{"a": 1}`,
		},
		{
			name: "prose brace before the payload",
			raw:  `I think {this} is it: {"a": {"nested": true}}`,
			want: `{"a": {"nested": true}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractObject(tt.raw)
			require.NoError(t, err)
			require.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestParseTackleAdvice(t *testing.T) {
	raw := `{"loadout_score": -5, "summary": "Decent", "improvements": ["Upsize line", "Upsize line", " ", "Sharpen hooks"],
"recommended_setup": {"rod": "7ft medium", "reel": null, "line": "", "bait": "Senko"}}`

	advice, err := ParseTackleAdvice(raw)
	require.NoError(t, err)
	require.Equal(t, 0, advice.LoadoutScore)
	require.Equal(t, "Decent", advice.Summary)
	require.Equal(t, []string{"Upsize line", "Sharpen hooks"}, advice.Improvements)
	require.Equal(t, defaultTackleMeme, advice.MemeLine)
	require.Equal(t, "7ft medium", *advice.RecommendedSetup.Rod)
	require.Nil(t, advice.RecommendedSetup.Reel)
	require.Nil(t, advice.RecommendedSetup.Line)
	require.Nil(t, advice.RecommendedSetup.Hook)
	require.Equal(t, "Senko", *advice.RecommendedSetup.Bait)
}

func TestParseWeatherAdvice(t *testing.T) {
	raw := `{"best_times": ["dawn", "dusk"], "recommended_bait": 42, "recommended_depth": "3-5m",
"disclaimers": ["one", "two", "three", "four"]}`

	advice, err := ParseWeatherAdvice(raw)
	require.NoError(t, err)
	require.Equal(t, []string{"dawn", "dusk"}, advice.BestTimes)
	require.Empty(t, advice.RecommendedBait)
	require.Equal(t, "3-5m", advice.RecommendedDepth)
	require.Equal(t, defaultTechnique, advice.RecommendedTechnique)
	require.Equal(t, defaultWeatherReason, advice.Reasoning)
	require.Equal(t, []string{"one", "two", "three"}, advice.Disclaimers)
}
