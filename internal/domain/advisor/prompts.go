package advisor

import (
	"encoding/json"
	"fmt"
	"strings"
)

const defaultSystemPrompt = `You are FishAI, a fishing advisor NPC from a survival game. You speak in short, punchy sentences with dry sarcasm and gamer humor. You are helpful but always memey and never toxic. You know a lot about fishing: species, tackle, techniques and weather patterns. You give real advice wrapped in NPC dialog flavor.
- Refer to the user as "survivor" sometimes.
- Keep responses concise and structured.
- Always include disclaimers for estimates.
- Fish scores are 0-100 (100 = legendary catch).`

const fishShape = `{"species_guess":string,"confidence":number 0-1,"estimated_weight_kg":number|null,"estimated_length_cm":number|null,"fish_score":integer 0-100,"reasoning_short":string,"tips":string[],"meme_line":string,"disclaimers":string[]}`

const tackleShape = `{"loadout_score":integer 0-100,"summary":string,"improvements":string[],"meme_line":string,"recommended_setup":{"rod":string|null,"reel":string|null,"line":string|null,"hook":string|null,"bait":string|null}}`

const weatherShape = `{"best_times":string[],"recommended_bait":string[],"recommended_depth":string,"recommended_technique":string,"reasoning":string,"meme_line":string,"disclaimers":string[]}`

func (s *service) buildSystemPrompt() string {
	base := strings.TrimSpace(s.cfg.SystemPrompt)
	if base == "" {
		base = defaultSystemPrompt
	}
	return base
}

func jsonEnforcer(shape string) string {
	return "Respond ONLY with one valid JSON object using this shape: " + shape + ". Arrays hold short strings; use an empty array when nothing applies. Never add other fields or prose."
}

func photoContext(req PhotoRequest) string {
	return fmt.Sprintf("Context: Location: %s, Water: %s, Gear: %s",
		orDefault(req.Location, "unknown"),
		orDefault(req.WaterType, "unknown"),
		orDefault(req.GearNotes, "unknown"))
}

func visionPrompt(req PhotoRequest) string {
	return "Evaluate this fish catch photo. " + photoContext(req) + "\n\n" + jsonEnforcer(fishShape)
}

// degradedPrompt describes the upload without the image for the text-only path.
func degradedPrompt(req PhotoRequest) string {
	description := "Fish photo uploaded."
	if req.Filename != "" {
		description = fmt.Sprintf("Fish photo uploaded. Filename: %s", req.Filename)
	}
	return fmt.Sprintf("A survivor uploaded a fish photo. We couldn't process the image, but here's what they said: %q. %s\n\nGive your best NPC-style fish evaluation. %s",
		description, photoContext(req), jsonEnforcer(fishShape))
}

func tacklePrompt(req TackleRequest) string {
	payload, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		payload = []byte("{}")
	}
	return "Evaluate this fishing loadout and suggest improvements:\n" + string(payload) + "\n\n" + jsonEnforcer(tackleShape)
}

func weatherPrompt(req WeatherRequest, forecast ForecastSummary) string {
	payload, err := json.MarshalIndent(forecast, "", "  ")
	if err != nil {
		payload = []byte("{}")
	}
	location := forecast.City
	if forecast.Country != "" {
		location += ", " + forecast.Country
	}
	return fmt.Sprintf("Based on this weather forecast for %s:\n%s\n\nWater type: %s\nTarget species: %s\n\nGive fishing advice. %s",
		location, payload,
		orDefault(req.WaterType, "unknown"),
		orDefault(req.TargetSpecies, "anything that bites"),
		jsonEnforcer(weatherShape))
}

func chatSystemPrompt(base string, ctx *ChatContext) string {
	if ctx == nil {
		return base
	}
	return fmt.Sprintf("%s\n\nUser stats: %d catches, best score: %d, favorite gear: %s",
		base, ctx.Catches, ctx.BestScore, orDefault(ctx.Gear, "unknown"))
}
