package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"avatarstudio/internal/generation"
	"avatarstudio/internal/language"
	"avatarstudio/internal/project"
	"avatarstudio/internal/wizard"
)

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form that falls back to accessible prompts when stdin
// is not a terminal.
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeCharm())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

const uploadChoice = "__upload__"

func newWizardCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "wizard",
		Short: "Build the project step by step with interactive prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			var generateNow bool
			err := ctx.withSession(cmd, func(s *session) error {
				state := s.projects.Snapshot()
				start := wizard.EffectiveStep(state)
				out := cmd.OutOrStdout()
				for step := start; step < wizard.StepGenerate; step++ {
					fmt.Fprintf(out, "\nStep %d/%d: %s\n", step, wizard.StepGenerate, wizard.Label(step))
					if err := runWizardStep(cmd.Context(), s, step); err != nil {
						return err
					}
				}
				return newForm(huh.NewGroup(
					huh.NewConfirm().
						Title("Generate the video now?").
						Affirmative("Generate").
						Negative("Later").
						Value(&generateNow),
				)).Run()
			})
			if err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					fmt.Fprintln(cmd.OutOrStdout(), "Wizard stopped; progress so far is saved")
					return nil
				}
				return err
			}
			if !generateNow {
				fmt.Fprintln(cmd.OutOrStdout(), "Run `avatarstudio generate` when you are ready")
				return nil
			}
			return runJob(cmd, ctx, false, func(c context.Context, _ *session, ctrl *generation.Controller) (project.GenerationProgress, error) {
				return ctrl.Start(c)
			})
		},
	}
}

func runWizardStep(ctx context.Context, s *session, step int) error {
	state := s.projects.Snapshot()
	var mutate func(*project.ProjectState) error

	switch step {
	case wizard.StepAvatar:
		choice := ""
		if a, ok := state.Avatar.(project.LibraryAvatar); ok {
			choice = a.ID
		}
		uploadPath := ""
		options := make([]huh.Option[string], 0, len(project.Library())+1)
		for _, a := range project.Library() {
			options = append(options, huh.NewOption(a.Name, a.ID))
		}
		options = append(options, huh.NewOption("Upload my own photo", uploadChoice))
		if err := newForm(huh.NewGroup(
			huh.NewSelect[string]().Title("Choose an avatar").Options(options...).Value(&choice),
		)).Run(); err != nil {
			return err
		}
		if choice == uploadChoice {
			if err := newForm(huh.NewGroup(
				huh.NewInput().
					Title("Path to a PNG, JPEG, or WebP image").
					Value(&uploadPath).
					Validate(func(v string) error {
						_, err := project.ValidateUpload(v, s.cfg.Avatar.MaxUploadBytes)
						return err
					}),
			)).Run(); err != nil {
				return err
			}
		}
		mutate = func(p *project.ProjectState) error {
			if choice == uploadChoice {
				upload, err := project.ValidateUpload(uploadPath, s.cfg.Avatar.MaxUploadBytes)
				if err != nil {
					return err
				}
				p.Avatar = upload
			} else {
				a, _ := project.LookupLibraryAvatar(choice)
				p.Avatar = a
			}
			advanceStep(p, wizard.StepScript)
			return nil
		}

	case wizard.StepScript:
		text := state.Script.Text
		if err := newForm(huh.NewGroup(
			huh.NewText().
				Title("What should the avatar say?").
				Description(fmt.Sprintf("%d to %d characters; {{name}} placeholders are kept as written", project.MinScriptLength, project.MaxScriptLength)).
				CharLimit(project.MaxScriptLength).
				Value(&text).
				Validate(func(v string) error {
					return project.ValidateScript(project.Script{Text: v})
				}),
		)).Run(); err != nil {
			return err
		}
		mutate = func(p *project.ProjectState) error {
			p.Script.Text = strings.TrimSpace(text)
			if err := project.ValidateScript(p.Script); err != nil {
				return err
			}
			advanceStep(p, wizard.StepVoice)
			return nil
		}

	case wizard.StepVoice:
		voiceID := ""
		if state.Voice.Selected != nil {
			voiceID = state.Voice.Selected.ID
		}
		speed := strconv.FormatFloat(state.Voice.Settings.Speed, 'f', -1, 64)
		options := make([]huh.Option[string], 0, len(project.Voices()))
		for _, v := range project.Voices() {
			options = append(options, huh.NewOption(fmt.Sprintf("%s (%s, %s)", v.Name, v.Tone, v.Gender), v.ID))
		}
		if err := newForm(huh.NewGroup(
			huh.NewSelect[string]().Title("Choose a voice").Options(options...).Value(&voiceID),
			huh.NewInput().Title("Speaking speed").Description("0.5 to 2.0").Value(&speed).
				Validate(func(v string) error {
					f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
					if err != nil {
						return fmt.Errorf("enter a number")
					}
					settings := state.Voice.Settings
					settings.Speed = f
					return project.ValidateVoiceSettings(settings)
				}),
		)).Run(); err != nil {
			return err
		}
		mutate = func(p *project.ProjectState) error {
			voice, ok := project.LookupVoice(voiceID)
			if !ok {
				return fmt.Errorf("unknown voice %q", voiceID)
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(speed), 64)
			if err != nil {
				return fmt.Errorf("speed: %w", err)
			}
			p.Voice.Selected = &voice
			p.Voice.Settings.Speed = f
			advanceStep(p, wizard.StepVideo)
			return nil
		}

	case wizard.StepVideo:
		video := state.Video
		aspect := string(video.AspectRatio)
		resolution := string(video.Resolution)
		background := string(video.Background.Type)
		bgValue := video.Background.Value
		subtitles := video.Subtitles.Enabled
		subtitleLanguage := video.Subtitles.Language
		languageOptions := make([]huh.Option[string], 0)
		known := false
		for _, opt := range language.Options() {
			languageOptions = append(languageOptions, huh.NewOption(opt.Display, opt.Code))
			known = known || opt.Code == subtitleLanguage
		}
		if !known && subtitleLanguage != "" {
			languageOptions = append(languageOptions, huh.NewOption(language.DisplayName(subtitleLanguage), subtitleLanguage))
		}
		if err := newForm(huh.NewGroup(
			huh.NewSelect[string]().Title("Aspect ratio").Value(&aspect).Options(
				huh.NewOption("Portrait 9:16", string(project.AspectPortrait)),
				huh.NewOption("Landscape 16:9", string(project.AspectLandscape)),
				huh.NewOption("Square 1:1", string(project.AspectSquare)),
				huh.NewOption("Feed 4:5", string(project.AspectFeed)),
			),
			huh.NewSelect[string]().Title("Resolution").Value(&resolution).Options(
				huh.NewOptions(string(project.Resolution720p), string(project.Resolution1080p), string(project.Resolution4K))...,
			),
			huh.NewSelect[string]().Title("Background").Value(&background).Options(
				huh.NewOptions(
					string(project.BackgroundColor), string(project.BackgroundGradient), string(project.BackgroundImage),
					string(project.BackgroundGreenscreen), string(project.BackgroundAI),
				)...,
			),
			huh.NewInput().Title("Background value").Description("Colour, gradient, image path, or scene description").Value(&bgValue),
			huh.NewConfirm().Title("Burn in subtitles?").Value(&subtitles),
			huh.NewSelect[string]().Title("Subtitle language").Value(&subtitleLanguage).Options(languageOptions...),
		)).Run(); err != nil {
			return err
		}
		mutate = func(p *project.ProjectState) error {
			next := p.Video
			next.AspectRatio = project.AspectRatio(aspect)
			next.Resolution = project.Resolution(resolution)
			next.Background = project.Background{Type: project.BackgroundType(background), Value: strings.TrimSpace(bgValue)}
			next.Subtitles.Enabled = subtitles
			next.Subtitles.Language = subtitleLanguage
			if err := project.ValidateVideo(next); err != nil {
				return err
			}
			p.Video = next
			return nil
		}
	default:
		return nil
	}

	_, err := s.projects.Update(ctx, mutate)
	return err
}
