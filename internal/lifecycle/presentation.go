package lifecycle

import (
	"context"
	"fmt"

	"avatarstudio/internal/project"
)

// Presentation is one of the mutually exclusive lifecycle screens.
type Presentation string

const (
	PresentationIdle       Presentation = "idle"
	PresentationProcessing Presentation = "processing"
	PresentationCompleted  Presentation = "completed"
	PresentationFailed     Presentation = "failed"
	PresentationCancelled  Presentation = "cancelled"
)

// Select picks the presentation for p. Unknown statuses render as idle.
func Select(p project.GenerationProgress) Presentation {
	switch p.Status {
	case project.StatusProcessing:
		return PresentationProcessing
	case project.StatusCompleted:
		return PresentationCompleted
	case project.StatusFailed:
		return PresentationFailed
	case project.StatusCancelled:
		return PresentationCancelled
	default:
		return PresentationIdle
	}
}

// Action is a user request forwarded to the controller.
type Action string

const (
	ActionCancel            Action = "cancel"
	ActionDownload          Action = "download"
	ActionCreateAnother     Action = "create-another"
	ActionEditAndRegenerate Action = "edit-and-regenerate"
)

// ActionOption is an action offered on a presentation with its button label.
type ActionOption struct {
	Action Action
	Label  string
}

// AvailableActions lists the actions offered on a presentation.
func AvailableActions(p Presentation) []ActionOption {
	switch p {
	case PresentationProcessing:
		return []ActionOption{{ActionCancel, "Cancel"}}
	case PresentationCompleted:
		return []ActionOption{{ActionDownload, "Download"}, {ActionCreateAnother, "Create another"}}
	case PresentationFailed:
		return []ActionOption{{ActionEditAndRegenerate, "Try again"}, {ActionCreateAnother, "Start over"}}
	case PresentationCancelled:
		return []ActionOption{{ActionEditAndRegenerate, "Edit and regenerate"}, {ActionCreateAnother, "Create another"}}
	default:
		return nil
	}
}

// Actions is implemented by the controller that owns the active job.
type Actions interface {
	Cancel()
	Download(ctx context.Context) error
	CreateAnother(ctx context.Context) error
	EditAndRegenerate(ctx context.Context) error
}

func dispatch(ctx context.Context, actions Actions, action Action) error {
	if actions == nil {
		return fmt.Errorf("action %s: no controller attached", action)
	}
	switch action {
	case ActionCancel:
		actions.Cancel()
		return nil
	case ActionDownload:
		return actions.Download(ctx)
	case ActionCreateAnother:
		return actions.CreateAnother(ctx)
	case ActionEditAndRegenerate:
		return actions.EditAndRegenerate(ctx)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}
