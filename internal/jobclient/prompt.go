package jobclient

import (
	"fmt"
	"strings"

	"avatarstudio/internal/project"
)

// Emotion tags accepted by the service.
const (
	EmotionNeutral = "neutral"
	EmotionExcited = "excited"
	EmotionCalm    = "calm"
)

// EmotionForTone maps a voice tone to an emotion tag. The mapping is total:
// unknown or empty tones fall back to neutral.
func EmotionForTone(tone string) string {
	switch strings.ToLower(strings.TrimSpace(tone)) {
	case project.ToneProfessional, project.ToneCasual:
		return EmotionNeutral
	case project.ToneEnergetic:
		return EmotionExcited
	case project.ToneCalm:
		return EmotionCalm
	default:
		return EmotionNeutral
	}
}

// BuildPrompt synthesizes the scene description sent with a job from the
// avatar variant, voice tone, and background type.
func BuildPrompt(state project.ProjectState) string {
	var subject string
	switch a := state.Avatar.(type) {
	case project.LibraryAvatar:
		if a.Name != "" {
			subject = fmt.Sprintf("%s, a professional presenter,", a.Name)
		} else {
			subject = "A professional presenter"
		}
	case project.UploadAvatar:
		subject = "The person in the reference photo"
	default:
		subject = "A presenter"
	}

	tone := "friendly"
	if state.Voice.Selected != nil && state.Voice.Selected.Tone != "" {
		tone = strings.ToLower(state.Voice.Selected.Tone)
	}

	scene := backgroundScene(state.Video.Background)
	return fmt.Sprintf("%s speaking directly to the camera in a %s tone, %s.", subject, tone, scene)
}

func backgroundScene(bg project.Background) string {
	switch bg.Type {
	case project.BackgroundColor:
		if bg.Value != "" {
			return "in front of a plain " + bg.Value + " backdrop"
		}
		return "in front of a plain backdrop"
	case project.BackgroundGradient:
		return "in front of a soft gradient backdrop"
	case project.BackgroundImage:
		return "in front of a custom background image"
	case project.BackgroundGreenscreen:
		return "in front of a green screen"
	case project.BackgroundAI:
		if v := strings.TrimSpace(bg.Value); v != "" {
			return "in " + v
		}
		return "in a modern, well-lit setting"
	default:
		return "in a modern, well-lit setting"
	}
}
