package advisor

import (
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	apperrors "github.com/yanqian/fishai-advisor/pkg/errors"
)

const (
	maxChatRunes     = 2000
	maxLocationRunes = 200
	maxGearRunes     = 500
	maxFilenameRunes = 255
	maxLineStrength  = 500
)

var allowedPhotoTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

var waterTypes = map[string]struct{}{
	"lake":   {},
	"river":  {},
	"sea":    {},
	"pond":   {},
	"stream": {},
	"ocean":  {},
	"other":  {},
}

type violations map[string]string

func (v violations) maxLen(field, value string, limit int) {
	if utf8.RuneCountInString(value) > limit {
		v[field] = fmt.Sprintf("must be at most %d characters", limit)
	}
}

func (v violations) waterType(field, value string) {
	if value == "" {
		return
	}
	if _, ok := waterTypes[value]; !ok {
		v[field] = "must be one of lake, river, sea, pond, stream, ocean, other"
	}
}

func (v violations) err(message string) error {
	if len(v) == 0 {
		return nil
	}
	return apperrors.Invalid(message, v)
}

// validatePhoto checks the upload and resolves its MIME type, sniffing the
// bytes when none was declared.
func validatePhoto(req *PhotoRequest, maxBytes int64) error {
	v := violations{}
	req.Location = strings.TrimSpace(req.Location)
	req.WaterType = strings.ToLower(strings.TrimSpace(req.WaterType))
	req.GearNotes = strings.TrimSpace(req.GearNotes)
	req.Filename = truncateRunes(strings.TrimSpace(req.Filename), maxFilenameRunes)

	switch {
	case len(req.Photo) == 0:
		v["photo"] = "is required"
	case int64(len(req.Photo)) > maxBytes:
		v["photo"] = fmt.Sprintf("must be at most %d bytes", maxBytes)
	default:
		req.MimeType = resolveMimeType(req.MimeType, req.Photo)
		if _, ok := allowedPhotoTypes[req.MimeType]; !ok {
			v["photo"] = "must be a JPEG, PNG, WebP or GIF image"
		}
	}
	v.maxLen("location_text", req.Location, maxLocationRunes)
	v.waterType("water_type", req.WaterType)
	v.maxLen("gear_notes", req.GearNotes, maxGearRunes)
	return v.err("invalid photo evaluation request")
}

func resolveMimeType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared == "" || declared == "application/octet-stream" {
		declared = mimetype.Detect(data).String()
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return strings.ToLower(declared)
	}
	return mediaType
}

func validateChat(req *ChatRequest) error {
	v := violations{}
	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Content = strings.TrimSpace(req.Content)

	if req.SessionID != "" {
		if _, err := uuid.Parse(req.SessionID); err != nil {
			v["session_id"] = "must be a UUID"
		}
	}
	if n := utf8.RuneCountInString(req.Content); n == 0 || n > maxChatRunes {
		v["content"] = fmt.Sprintf("must be 1-%d characters", maxChatRunes)
	}
	if req.Context != nil {
		if req.Context.Catches < 0 {
			v["context.catches"] = "cannot be negative"
		}
		if req.Context.BestScore < 0 || req.Context.BestScore > 100 {
			v["context.best_score"] = "must be between 0 and 100"
		}
		v.maxLen("context.gear", req.Context.Gear, maxLocationRunes)
	}
	return v.err("invalid chat message")
}

func validateTackle(req *TackleRequest) error {
	v := violations{}
	req.WaterType = strings.ToLower(strings.TrimSpace(req.WaterType))
	v.maxLen("rod", req.Rod, 200)
	v.maxLen("reel", req.Reel, 200)
	v.maxLen("line_type", req.LineType, 100)
	v.maxLen("hook_type", req.HookType, 100)
	v.maxLen("hook_size", req.HookSize, 50)
	v.maxLen("bait_or_lure", req.BaitOrLure, 200)
	v.maxLen("target_species", req.TargetSpecies, 100)
	v.maxLen("notes", req.Notes, 500)
	v.waterType("water_type", req.WaterType)
	if req.LineStrengthLb != nil && (*req.LineStrengthLb < 0 || *req.LineStrengthLb > maxLineStrength) {
		v["line_strength_lb"] = fmt.Sprintf("must be between 0 and %d", maxLineStrength)
	}
	return v.err("invalid tackle loadout")
}

func validateWeather(req *WeatherRequest) error {
	v := violations{}
	req.City = strings.TrimSpace(req.City)
	req.Country = strings.TrimSpace(req.Country)
	req.WaterType = strings.ToLower(strings.TrimSpace(req.WaterType))

	if req.City == "" {
		v["city"] = "is required"
	} else {
		v.maxLen("city", req.City, 100)
	}
	v.maxLen("country", req.Country, 100)
	v.waterType("water_type", req.WaterType)
	v.maxLen("target_species", req.TargetSpecies, 100)
	return v.err("invalid weather advice request")
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
