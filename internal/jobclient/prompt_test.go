package jobclient_test

import (
	"strings"
	"testing"

	"avatarstudio/internal/jobclient"
	"avatarstudio/internal/project"
)

func TestEmotionForTone(t *testing.T) {
	tests := map[string]string{
		"professional": "neutral",
		"casual":       "neutral",
		"energetic":    "excited",
		"calm":         "calm",
		"Calm":         "calm",
		"":             "neutral",
		"sarcastic":    "neutral",
	}
	for tone, want := range tests {
		if got := jobclient.EmotionForTone(tone); got != want {
			t.Fatalf("EmotionForTone(%q) = %q, want %q", tone, got, want)
		}
	}
}

func TestBuildPromptCoversAvatarVariants(t *testing.T) {
	s := project.New()
	v, _ := project.LookupVoice("echo")
	s.Voice.Selected = &v

	s.Avatar = project.LibraryAvatar{ID: "m", URL: "u", Name: "Marcus"}
	s.Video.Background = project.Background{Type: project.BackgroundGreenscreen}
	lib := jobclient.BuildPrompt(s)
	if !strings.Contains(lib, "Marcus") || !strings.Contains(lib, "calm tone") || !strings.Contains(lib, "green screen") {
		t.Fatalf("unexpected library prompt: %q", lib)
	}

	s.Avatar = project.UploadAvatar{Path: "/tmp/me.png", Filename: "me.png"}
	s.Video.Background = project.Background{Type: project.BackgroundAI, Value: "a cozy coffee shop"}
	up := jobclient.BuildPrompt(s)
	if !strings.Contains(up, "reference photo") || !strings.Contains(up, "cozy coffee shop") {
		t.Fatalf("unexpected upload prompt: %q", up)
	}
}
