package project

import "strings"

// Voice tones understood by the emotion mapping.
const (
	ToneProfessional = "professional"
	ToneCasual       = "casual"
	ToneEnergetic    = "energetic"
	ToneCalm         = "calm"
)

var catalog = []Voice{
	{ID: "alloy", Name: "Alloy", Tone: ToneProfessional, Gender: "neutral", Accent: "american"},
	{ID: "echo", Name: "Echo", Tone: ToneCalm, Gender: "male", Accent: "american"},
	{ID: "fable", Name: "Fable", Tone: ToneCasual, Gender: "male", Accent: "british"},
	{ID: "onyx", Name: "Onyx", Tone: ToneProfessional, Gender: "male", Accent: "american"},
	{ID: "nova", Name: "Nova", Tone: ToneEnergetic, Gender: "female", Accent: "american"},
	{ID: "shimmer", Name: "Shimmer", Tone: ToneCalm, Gender: "female", Accent: "american"},
}

// Voices returns a copy of the built-in voice catalog.
func Voices() []Voice {
	out := make([]Voice, len(catalog))
	copy(out, catalog)
	return out
}

// LookupVoice finds a catalog voice by id or name, case-insensitively.
func LookupVoice(key string) (Voice, bool) {
	key = strings.TrimSpace(key)
	for _, v := range catalog {
		if strings.EqualFold(v.ID, key) || strings.EqualFold(v.Name, key) {
			return v, true
		}
	}
	return Voice{}, false
}
