package project

import (
	"fmt"
	"maps"

	"github.com/google/uuid"
)

// Persisted steps are clamped to this range. A project saved on the generate
// step comes back with an idle generation, which the wizard treats as step 1.
const (
	MinDurableStep = 1
	MaxDurableStep = 5
)

func clampStep(step int) int {
	return min(max(step, MinDurableStep), MaxDurableStep)
}

// AvatarRecord is the flattened, persistable form of an AvatarSelection.
type AvatarRecord struct {
	Kind       string `json:"kind" yaml:"kind"`
	ID         string `json:"id,omitempty" yaml:"id,omitempty"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	Path       string `json:"path,omitempty" yaml:"path,omitempty"`
	PreviewURL string `json:"preview_url,omitempty" yaml:"preview_url,omitempty"`
	Filename   string `json:"filename,omitempty" yaml:"filename,omitempty"`
	Size       int64  `json:"size,omitempty" yaml:"size,omitempty"`
}

// ScriptRecord is the persistable form of Script.
type ScriptRecord struct {
	Text      string            `json:"text" yaml:"text"`
	Variables map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// Durable is the subset of ProjectState that survives a restart.
// Generation progress is deliberately absent.
type Durable struct {
	ProjectID     string        `json:"project_id" yaml:"project_id"`
	Avatar        *AvatarRecord `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Script        ScriptRecord  `json:"script" yaml:"script"`
	Voice         *Voice        `json:"voice,omitempty" yaml:"voice,omitempty"`
	VoiceSettings VoiceSettings `json:"voice_settings" yaml:"voice_settings"`
	Video         VideoSettings `json:"video" yaml:"video"`
	CurrentStep   int           `json:"current_step" yaml:"current_step"`
}

// ToDurable extracts the persisted subset.
func (s ProjectState) ToDurable() Durable {
	c := s.Clone()
	return Durable{
		ProjectID:     c.ProjectID,
		Avatar:        avatarToRecord(c.Avatar),
		Script:        ScriptRecord{Text: c.Script.Text, Variables: c.Script.Variables},
		Voice:         c.Voice.Selected,
		VoiceSettings: c.Voice.Settings,
		Video:         c.Video,
		CurrentStep:   clampStep(c.CurrentStep),
	}
}

// Restore rebuilds a ProjectState from its durable subset. Generation is
// always idle: a restored project never resumes a remote job on its own.
func Restore(d Durable) ProjectState {
	s := New()
	if d.ProjectID != "" {
		s.ProjectID = d.ProjectID
	}
	if avatar, err := recordToAvatar(d.Avatar); err == nil {
		s.Avatar = avatar
	}
	s.Script = Script{Text: d.Script.Text, Variables: maps.Clone(d.Script.Variables)}
	if d.Voice != nil {
		v := *d.Voice
		s.Voice.Selected = &v
	}
	if d.VoiceSettings != (VoiceSettings{}) {
		s.Voice.Settings = d.VoiceSettings
	}
	if d.Video.AspectRatio != "" {
		s.Video = d.Video
	}
	s.CurrentStep = clampStep(d.CurrentStep)
	s.Generation = IdleGeneration()
	return s
}

func avatarToRecord(a AvatarSelection) *AvatarRecord {
	switch v := a.(type) {
	case LibraryAvatar:
		return &AvatarRecord{Kind: AvatarKindLibrary, ID: v.ID, URL: v.URL, Name: v.Name}
	case UploadAvatar:
		return &AvatarRecord{Kind: AvatarKindUpload, Path: v.Path, PreviewURL: v.PreviewURL, Filename: v.Filename, Size: v.Size}
	default:
		return nil
	}
}

func recordToAvatar(r *AvatarRecord) (AvatarSelection, error) {
	if r == nil {
		return nil, nil
	}
	switch r.Kind {
	case AvatarKindLibrary:
		return LibraryAvatar{ID: r.ID, URL: r.URL, Name: r.Name}, nil
	case AvatarKindUpload:
		return UploadAvatar{Path: r.Path, PreviewURL: r.PreviewURL, Filename: r.Filename, Size: r.Size}, nil
	default:
		return nil, validationError("avatar", fmt.Sprintf("unknown avatar kind %q", r.Kind))
	}
}

func ensureProjectID(d *Durable) {
	if d.ProjectID == "" {
		d.ProjectID = uuid.NewString()
	}
}
