package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"avatarstudio/internal/language"
	"avatarstudio/internal/services"
)

func validationError(operation, message string) error {
	return services.Wrap(services.ErrValidation, "project", operation, message, nil)
}

// ValidateScript checks the rune length policy on the raw text.
func ValidateScript(s Script) error {
	n := s.Length()
	if n < MinScriptLength {
		return validationError("script", fmt.Sprintf("script must be at least %d characters (got %d)", MinScriptLength, n))
	}
	if n > MaxScriptLength {
		return validationError("script", fmt.Sprintf("script must be at most %d characters (got %d)", MaxScriptLength, n))
	}
	return nil
}

// ValidateVoiceSettings checks every setting against its allowed range.
func ValidateVoiceSettings(v VoiceSettings) error {
	if v.Speed < 0.5 || v.Speed > 2.0 {
		return validationError("voice", fmt.Sprintf("speed must be between 0.5 and 2.0 (got %g)", v.Speed))
	}
	if v.Pitch < 0.5 || v.Pitch > 2.0 {
		return validationError("voice", fmt.Sprintf("pitch must be between 0.5 and 2.0 (got %g)", v.Pitch))
	}
	if v.PauseDuration < 0 || v.PauseDuration > 2.0 {
		return validationError("voice", fmt.Sprintf("pause duration must be between 0 and 2.0 seconds (got %g)", v.PauseDuration))
	}
	return nil
}

// ValidateVideo checks enumerated video settings.
func ValidateVideo(v VideoSettings) error {
	if _, err := ParseAspectRatio(string(v.AspectRatio)); err != nil {
		return err
	}
	if _, err := ParseResolution(string(v.Resolution)); err != nil {
		return err
	}
	if _, err := ParseBackgroundType(string(v.Background.Type)); err != nil {
		return err
	}
	if v.Background.Type == BackgroundImage && strings.TrimSpace(v.Background.Value) == "" {
		return validationError("video", "image background requires a file path")
	}
	if v.Subtitles.Language != "" {
		if _, err := language.Normalize(v.Subtitles.Language); err != nil {
			return validationError("video", err.Error())
		}
	}
	return nil
}

// ValidateAvatar checks that a selection carries the fields its variant needs.
func ValidateAvatar(a AvatarSelection) error {
	switch v := a.(type) {
	case nil:
		return nil
	case LibraryAvatar:
		if strings.TrimSpace(v.ID) == "" || strings.TrimSpace(v.URL) == "" {
			return validationError("avatar", "library avatar requires an id and url")
		}
	case UploadAvatar:
		if strings.TrimSpace(v.Path) == "" {
			return validationError("avatar", "uploaded avatar requires a file path")
		}
	default:
		return validationError("avatar", fmt.Sprintf("unsupported avatar type %T", a))
	}
	return nil
}

var uploadExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".webp": {},
}

// ValidateUpload inspects a local image file and returns an UploadAvatar for it.
func ValidateUpload(path string, maxBytes int64) (UploadAvatar, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return UploadAvatar{}, fmt.Errorf("resolve upload path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(abs))
	if _, ok := uploadExtensions[ext]; !ok {
		return UploadAvatar{}, validationError("avatar", fmt.Sprintf("unsupported image type %q (use png, jpg, or webp)", ext))
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return UploadAvatar{}, services.Wrap(services.ErrNotFound, "project", "avatar", "image file not found: "+abs, nil)
		}
		return UploadAvatar{}, fmt.Errorf("stat upload: %w", err)
	}
	if info.IsDir() {
		return UploadAvatar{}, validationError("avatar", abs+" is a directory")
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return UploadAvatar{}, validationError("avatar", fmt.Sprintf("image is %d bytes; limit is %d", info.Size(), maxBytes))
	}
	return UploadAvatar{
		Path:       abs,
		PreviewURL: "file://" + filepath.ToSlash(abs),
		Filename:   filepath.Base(abs),
		Size:       info.Size(),
	}, nil
}

// ParseAspectRatio validates an aspect ratio string.
func ParseAspectRatio(value string) (AspectRatio, error) {
	switch r := AspectRatio(strings.TrimSpace(value)); r {
	case AspectLandscape, AspectPortrait, AspectSquare, AspectFeed:
		return r, nil
	}
	return "", validationError("video", fmt.Sprintf("aspect ratio must be one of 16:9, 9:16, 1:1, 4:5 (got %q)", value))
}

// ParseResolution validates a resolution string.
func ParseResolution(value string) (Resolution, error) {
	switch r := Resolution(strings.ToLower(strings.TrimSpace(value))); r {
	case Resolution720p, Resolution1080p, Resolution4K:
		return r, nil
	}
	return "", validationError("video", fmt.Sprintf("resolution must be one of 720p, 1080p, 4k (got %q)", value))
}

// ParseBackgroundType validates a background type string.
func ParseBackgroundType(value string) (BackgroundType, error) {
	switch b := BackgroundType(strings.ToLower(strings.TrimSpace(value))); b {
	case BackgroundColor, BackgroundGradient, BackgroundImage, BackgroundGreenscreen, BackgroundAI:
		return b, nil
	}
	return "", validationError("video", fmt.Sprintf("background must be one of color, gradient, image, greenscreen, ai (got %q)", value))
}
