package project

import (
	"maps"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Script length policy, counted in runes of the raw text.
const (
	MinScriptLength = 10
	MaxScriptLength = 5000
)

// AvatarSelection is the reference face for the generated video. The only
// implementations are LibraryAvatar and UploadAvatar; a nil selection means
// no avatar has been chosen.
type AvatarSelection interface {
	avatarKind() string
}

// LibraryAvatar references a stock avatar hosted by URL.
type LibraryAvatar struct {
	ID   string
	URL  string
	Name string
}

// UploadAvatar references an image supplied by the user from local disk.
type UploadAvatar struct {
	Path       string
	PreviewURL string
	Filename   string
	Size       int64
}

func (LibraryAvatar) avatarKind() string { return AvatarKindLibrary }
func (UploadAvatar) avatarKind() string  { return AvatarKindUpload }

// Avatar kinds used in persisted records.
const (
	AvatarKindLibrary = "library"
	AvatarKindUpload  = "upload"
)

// AvatarKind returns the persisted kind of a selection, or "" for nil.
func AvatarKind(a AvatarSelection) string {
	if a == nil {
		return ""
	}
	return a.avatarKind()
}

// AvatarLabel returns a short human-readable description of the selection.
func AvatarLabel(a AvatarSelection) string {
	switch v := a.(type) {
	case LibraryAvatar:
		if v.Name != "" {
			return v.Name
		}
		return v.ID
	case UploadAvatar:
		return v.Filename
	default:
		return ""
	}
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Script is the text the avatar speaks.
type Script struct {
	Text      string
	Variables map[string]string
}

// Length returns the rune count of the raw script text.
func (s Script) Length() int {
	return len([]rune(s.Text))
}

// Resolved substitutes {{name}} placeholders with variable values. Unknown
// placeholders are left intact.
func (s Script) Resolved() string {
	if len(s.Variables) == 0 {
		return s.Text
	}
	return placeholderPattern.ReplaceAllStringFunc(s.Text, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if value, ok := s.Variables[name]; ok {
			return value
		}
		return match
	})
}

// Voice describes one selectable text-to-speech voice.
type Voice struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Tone   string `json:"tone" yaml:"tone"`
	Gender string `json:"gender,omitempty" yaml:"gender,omitempty"`
	Accent string `json:"accent,omitempty" yaml:"accent,omitempty"`
}

// VoiceSettings tunes speech delivery.
type VoiceSettings struct {
	Speed         float64 `json:"speed" yaml:"speed"`
	Pitch         float64 `json:"pitch" yaml:"pitch"`
	PauseDuration float64 `json:"pause_duration" yaml:"pause_duration"`
}

// VoiceChoice pairs the selected voice with its settings.
type VoiceChoice struct {
	Selected *Voice
	Settings VoiceSettings
}

// AspectRatio of the output video.
type AspectRatio string

const (
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
	AspectSquare    AspectRatio = "1:1"
	AspectFeed      AspectRatio = "4:5"
)

// Resolution of the output video.
type Resolution string

const (
	Resolution720p  Resolution = "720p"
	Resolution1080p Resolution = "1080p"
	Resolution4K    Resolution = "4k"
)

// BackgroundType selects how the scene behind the avatar is produced.
type BackgroundType string

const (
	BackgroundColor       BackgroundType = "color"
	BackgroundGradient    BackgroundType = "gradient"
	BackgroundImage       BackgroundType = "image"
	BackgroundGreenscreen BackgroundType = "greenscreen"
	BackgroundAI          BackgroundType = "ai"
)

// Background of the output video; Value is a colour, gradient definition, image
// path, or AI scene description depending on Type.
type Background struct {
	Type  BackgroundType `json:"type" yaml:"type"`
	Value string         `json:"value" yaml:"value"`
}

// Subtitles controls burned-in captions.
type Subtitles struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Style    string `json:"style" yaml:"style"`
	Language string `json:"language" yaml:"language"`
}

// VideoSettings groups the output format choices.
type VideoSettings struct {
	AspectRatio AspectRatio `json:"aspect_ratio" yaml:"aspect_ratio"`
	Resolution  Resolution  `json:"resolution" yaml:"resolution"`
	Background  Background  `json:"background" yaml:"background"`
	Subtitles   Subtitles   `json:"subtitles" yaml:"subtitles"`
}

// Status is the local generation status.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether no further progress is expected.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Stage subdivides processing for user-facing progress text.
type Stage string

const (
	StageQueued           Stage = "queued"
	StageProcessingScript Stage = "processing_script"
	StageGeneratingSpeech Stage = "generating_speech"
	StageRenderingVideo   Stage = "rendering_video"
	StageFinalizing       Stage = "finalizing"
	StageDone             Stage = "done"
)

// GenerationProgress is the client's view of the active job.
type GenerationProgress struct {
	Status   Status
	Progress int
	Stage    Stage
	Message  string
	VideoURL string
	Error    string
	JobID    string
}

// IdleGeneration returns the progress value for "no job".
func IdleGeneration() GenerationProgress {
	return GenerationProgress{Status: StatusIdle, Stage: StageQueued}
}

// ProjectState is the complete in-progress project.
type ProjectState struct {
	ProjectID   string
	Avatar      AvatarSelection
	Script      Script
	Voice       VoiceChoice
	Video       VideoSettings
	Generation  GenerationProgress
	CurrentStep int
	IsDirty     bool
	LastSaved   time.Time
}

// DefaultVoiceSettings returns neutral delivery settings.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{Speed: 1.0, Pitch: 1.0, PauseDuration: 0.5}
}

// DefaultVideoSettings returns the portrait 1080p defaults.
func DefaultVideoSettings() VideoSettings {
	return VideoSettings{
		AspectRatio: AspectPortrait,
		Resolution:  Resolution1080p,
		Background:  Background{Type: BackgroundColor, Value: "#FFFFFF"},
		Subtitles:   Subtitles{Enabled: false, Style: "modern", Language: "en"},
	}
}

// New returns a fresh project with defaults and a new ProjectID.
func New() ProjectState {
	return ProjectState{
		ProjectID:   uuid.NewString(),
		Voice:       VoiceChoice{Settings: DefaultVoiceSettings()},
		Video:       DefaultVideoSettings(),
		Generation:  IdleGeneration(),
		CurrentStep: 1,
	}
}

// Clone returns a deep copy that shares no mutable memory with s.
func (s ProjectState) Clone() ProjectState {
	out := s
	out.Script.Variables = maps.Clone(s.Script.Variables)
	if s.Voice.Selected != nil {
		v := *s.Voice.Selected
		out.Voice.Selected = &v
	}
	return out
}
