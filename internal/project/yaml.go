package project

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExportYAML writes the durable subset of state as YAML.
func ExportYAML(w io.Writer, state ProjectState) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(state.ToDurable()); err != nil {
		return fmt.Errorf("encode project yaml: %w", err)
	}
	return enc.Close()
}

// ImportYAML reads a project previously written by ExportYAML. The document
// is validated with the same rules the wizard commands apply.
func ImportYAML(r io.Reader) (ProjectState, error) {
	var d Durable
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return ProjectState{}, validationError("import", "project file is empty")
		}
		return ProjectState{}, validationError("import", err.Error())
	}

	avatar, err := recordToAvatar(d.Avatar)
	if err != nil {
		return ProjectState{}, err
	}
	if err := ValidateAvatar(avatar); err != nil {
		return ProjectState{}, err
	}
	if strings.TrimSpace(d.Script.Text) != "" {
		if err := ValidateScript(Script{Text: d.Script.Text}); err != nil {
			return ProjectState{}, err
		}
	}
	if d.Voice != nil && strings.TrimSpace(d.Voice.ID) == "" {
		return ProjectState{}, validationError("import", "voice requires an id")
	}
	if d.VoiceSettings != (VoiceSettings{}) {
		if err := ValidateVoiceSettings(d.VoiceSettings); err != nil {
			return ProjectState{}, err
		}
	}
	if d.Video.AspectRatio != "" {
		if err := ValidateVideo(d.Video); err != nil {
			return ProjectState{}, err
		}
	}
	ensureProjectID(&d)
	return Restore(d), nil
}
