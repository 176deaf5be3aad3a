package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"avatarstudio/internal/language"
	"avatarstudio/internal/lifecycle"
	"avatarstudio/internal/project"
	"avatarstudio/internal/services"
	"avatarstudio/internal/wizard"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Summarize the current project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				state := s.projects.Snapshot()
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderKeyValues(projectSummary(state)))

				printStep(cmd, state)
				return nil
			})
		},
	}
}

func newStepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "step <1-4>",
		Short: "Jump to a wizard step",
		Long: "Jump to a wizard step. Any step can be requested; the step shown falls back\n" +
			"to the furthest one whose earlier selections are complete. Use `generate`\n" +
			"to enter the final step.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil || step < wizard.StepAvatar || step >= wizard.StepGenerate {
				return services.Wrap(services.ErrValidation, "wizard", "step",
					fmt.Sprintf("step must be between %d and %d", wizard.StepAvatar, wizard.StepVideo), nil)
			}
			return ctx.withSession(cmd, func(s *session) error {
				if err := s.projects.SetCurrentStep(cmd.Context(), step); err != nil {
					return err
				}
				state := s.projects.Snapshot()
				if shown := wizard.EffectiveStep(state); shown < step {
					fmt.Fprintf(cmd.OutOrStdout(), "Blocked: %s\n", wizard.Missing(state, step))
				}
				printStep(cmd, state)
				return nil
			})
		},
	}
}

func printStep(cmd *cobra.Command, state project.ProjectState) {
	out := cmd.OutOrStdout()
	step := wizard.EffectiveStep(state)
	fmt.Fprintf(out, "Step %d/%d: %s\n", step, wizard.StepGenerate, wizard.Label(step))
	if next := step + 1; next <= wizard.StepGenerate {
		if missing := wizard.Missing(state, next); missing != "" {
			fmt.Fprintf(out, "Next: %s\n", missing)
		}
	}
}

func projectSummary(state project.ProjectState) [][2]string {
	avatar := "(none)"
	if state.Avatar != nil {
		avatar = fmt.Sprintf("%s (%s)", project.AvatarLabel(state.Avatar), project.AvatarKind(state.Avatar))
	}
	script := "(empty)"
	if state.Script.Text != "" {
		script = fmt.Sprintf("%s [%d chars]", preview(state.Script.Text, 48), state.Script.Length())
	}
	voice := "(none)"
	if v := state.Voice.Selected; v != nil {
		voice = fmt.Sprintf("%s (%s)", v.Name, v.Tone)
	}
	vs := state.Voice.Settings
	video := state.Video
	background := string(video.Background.Type)
	if video.Background.Value != "" {
		background += " " + video.Background.Value
	}
	generation := string(state.Generation.Status)
	if state.Generation.Status == project.StatusProcessing {
		generation = fmt.Sprintf("%s (%s, %d%%)", generation, lifecycle.StageLabel(state.Generation.Stage), state.Generation.Progress)
	}
	saved := "never"
	if !state.LastSaved.IsZero() {
		saved = state.LastSaved.Local().Format(time.DateTime)
	}

	subtitles := "no"
	if video.Subtitles.Enabled {
		subtitles = fmt.Sprintf("yes (%s, %s)", language.DisplayName(video.Subtitles.Language), video.Subtitles.Style)
	}

	pairs := [][2]string{
		{"Project", state.ProjectID},
		{"Avatar", avatar},
		{"Script", script},
		{"Voice", voice},
		{"Voice settings", fmt.Sprintf("speed %.2f, pitch %.2f, pause %.2fs", vs.Speed, vs.Pitch, vs.PauseDuration)},
		{"Video", fmt.Sprintf("%s, %s", video.AspectRatio, video.Resolution)},
		{"Background", background},
		{"Subtitles", subtitles},
		{"Generation", generation},
	}
	if state.Generation.JobID != "" {
		pairs = append(pairs, [2]string{"Job", state.Generation.JobID})
	}
	return append(pairs, [2]string{"Last saved", saved})
}

func preview(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}
