// Package wizard decides which wizard steps are reachable for a project.
//
// Gating is advisory: the store accepts any step, and EffectiveStep
// re-derives the step to display from live state on every render.
package wizard

import "avatarstudio/internal/project"

// Wizard steps in order.
const (
	StepAvatar = iota + 1
	StepScript
	StepVoice
	StepVideo
	StepGenerate
)

var labels = [...]string{
	StepAvatar:   "Avatar",
	StepScript:   "Script",
	StepVoice:    "Voice",
	StepVideo:    "Video",
	StepGenerate: "Generate",
}

// Steps returns every step number in order.
func Steps() []int {
	return []int{StepAvatar, StepScript, StepVoice, StepVideo, StepGenerate}
}

// Label returns the display name of a step, or "" when out of range.
func Label(step int) string {
	if step < StepAvatar || step > StepGenerate {
		return ""
	}
	return labels[step]
}

// CanProceedToStep reports whether every step before n has its required
// selection. The video step carries defaults, so generate has the same
// prerequisites as video.
func CanProceedToStep(state project.ProjectState, n int) bool {
	switch n {
	case StepAvatar:
		return true
	case StepScript:
		return state.Avatar != nil
	case StepVoice:
		return CanProceedToStep(state, StepScript) && state.Script.Length() >= project.MinScriptLength
	case StepVideo, StepGenerate:
		return CanProceedToStep(state, StepVoice) && state.Voice.Selected != nil
	default:
		return false
	}
}

// EffectiveStep returns the step to display for state.
func EffectiveStep(state project.ProjectState) int {
	step := state.CurrentStep
	if step < StepAvatar || step > StepGenerate {
		return StepAvatar
	}
	if step == StepGenerate && state.Generation.Status == project.StatusIdle {
		return StepAvatar
	}
	if step > StepAvatar && state.Avatar == nil {
		return StepAvatar
	}
	for step > StepAvatar && !CanProceedToStep(state, step) {
		step--
	}
	return step
}

// Missing returns a short description of what blocks step n, or "" when
// the step is reachable.
func Missing(state project.ProjectState, n int) string {
	switch {
	case n < StepAvatar || n > StepGenerate:
		return "unknown step"
	case n >= StepScript && state.Avatar == nil:
		return "choose an avatar"
	case n >= StepVoice && state.Script.Length() < project.MinScriptLength:
		return "write a script of at least 10 characters"
	case n >= StepVideo && state.Voice.Selected == nil:
		return "select a voice"
	}
	return ""
}
