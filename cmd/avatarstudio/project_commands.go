package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"avatarstudio/internal/language"
	"avatarstudio/internal/project"
	"avatarstudio/internal/wizard"
)

// advanceStep moves the stored step forward to step when its prerequisites
// hold. It never moves backwards.
func advanceStep(p *project.ProjectState, step int) {
	if p.CurrentStep < step && wizard.CanProceedToStep(*p, step) {
		p.CurrentStep = step
	}
}

func newAvatarCommand(ctx *commandContext) *cobra.Command {
	avatarCmd := &cobra.Command{
		Use:   "avatar",
		Short: "Choose the avatar that presents the video",
	}
	avatarCmd.AddCommand(newAvatarLibraryCommand(ctx))
	avatarCmd.AddCommand(newAvatarUploadCommand(ctx))
	avatarCmd.AddCommand(newAvatarClearCommand(ctx))
	return avatarCmd
}

func newAvatarLibraryCommand(ctx *commandContext) *cobra.Command {
	var customURL, customName string
	cmd := &cobra.Command{
		Use:   "library [avatar]",
		Short: "List stock avatars or select one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 && customURL == "" {
				rows := make([][]string, 0, len(project.Library()))
				for _, a := range project.Library() {
					rows = append(rows, []string{a.ID, a.Name, a.URL})
				}
				fmt.Fprintln(out, renderTable([]string{"ID", "Name", "URL"}, rows, nil))
				return nil
			}

			var selected project.LibraryAvatar
			if customURL != "" {
				id := "custom"
				if len(args) == 1 {
					id = strings.TrimSpace(args[0])
				}
				selected = project.LibraryAvatar{ID: id, URL: strings.TrimSpace(customURL), Name: strings.TrimSpace(customName)}
			} else {
				a, ok := project.LookupLibraryAvatar(args[0])
				if !ok {
					return fmt.Errorf("unknown library avatar %q (run `avatarstudio avatar library` to list them)", args[0])
				}
				selected = a
			}
			if err := project.ValidateAvatar(selected); err != nil {
				return err
			}
			return ctx.withSession(cmd, func(s *session) error {
				_, err := s.projects.Update(cmd.Context(), func(p *project.ProjectState) error {
					p.Avatar = selected
					advanceStep(p, wizard.StepScript)
					return nil
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Avatar set to %s\n", project.AvatarLabel(selected))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&customURL, "url", "", "Use an image URL instead of a built-in avatar")
	cmd.Flags().StringVar(&customName, "name", "", "Display name for a custom avatar URL")
	return cmd
}

func newAvatarUploadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <image>",
		Short: "Use a local PNG, JPEG, or WebP image as the avatar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				upload, err := project.ValidateUpload(args[0], s.cfg.Avatar.MaxUploadBytes)
				if err != nil {
					return err
				}
				_, err = s.projects.Update(cmd.Context(), func(p *project.ProjectState) error {
					p.Avatar = upload
					advanceStep(p, wizard.StepScript)
					return nil
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Avatar set to %s (%d bytes)\n", upload.Filename, upload.Size)
				return nil
			})
		},
	}
}

func newAvatarClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the avatar selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				_, err := s.projects.Update(cmd.Context(), func(p *project.ProjectState) error {
					p.Avatar = nil
					return nil
				})
				if err != nil {
					return err
				}
				if err := s.projects.SetCurrentStep(cmd.Context(), wizard.StepAvatar); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Avatar cleared")
				return nil
			})
		},
	}
}

func newScriptCommand(ctx *commandContext) *cobra.Command {
	scriptCmd := &cobra.Command{
		Use:   "script",
		Short: "Write what the avatar says",
	}
	scriptCmd.AddCommand(newScriptSetCommand(ctx))
	scriptCmd.AddCommand(newScriptShowCommand(ctx))
	return scriptCmd
}

func newScriptSetCommand(ctx *commandContext) *cobra.Command {
	var fromFile string
	var vars map[string]string
	cmd := &cobra.Command{
		Use:   "set [text...]",
		Short: "Set the script text (use --file - to read stdin)",
		Long: "Set the script text. Placeholders written as {{name}} are filled from --var name=value " +
			"when the job is submitted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := scriptText(cmd.InOrStdin(), fromFile, args)
			if err != nil {
				return err
			}
			script := project.Script{Text: text, Variables: vars}
			if err := project.ValidateScript(script); err != nil {
				return err
			}
			return ctx.withSession(cmd, func(s *session) error {
				_, err := s.projects.Update(cmd.Context(), func(p *project.ProjectState) error {
					p.Script = script
					advanceStep(p, wizard.StepVoice)
					return nil
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Script saved (%d characters)\n", script.Length())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "Read the script from a file (- for stdin)")
	cmd.Flags().StringToStringVar(&vars, "var", nil, "Placeholder value as name=value (repeatable)")
	return cmd
}

func scriptText(stdin io.Reader, fromFile string, args []string) (string, error) {
	switch {
	case fromFile == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read script from stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	case fromFile != "":
		data, err := os.ReadFile(fromFile)
		if err != nil {
			return "", fmt.Errorf("read script file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		return "", fmt.Errorf("provide the script text as arguments or with --file")
	}
}

func newScriptShowCommand(ctx *commandContext) *cobra.Command {
	var resolved bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				script := s.projects.Snapshot().Script
				out := cmd.OutOrStdout()
				if script.Text == "" {
					fmt.Fprintln(out, "No script yet")
					return nil
				}
				if resolved {
					fmt.Fprintln(out, script.Resolved())
				} else {
					fmt.Fprintln(out, script.Text)
				}
				fmt.Fprintf(out, "\n%d/%d characters\n", script.Length(), project.MaxScriptLength)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&resolved, "resolved", false, "Substitute placeholder variables")
	return cmd
}

func newVoiceCommand(ctx *commandContext) *cobra.Command {
	voiceCmd := &cobra.Command{
		Use:   "voice",
		Short: "Pick and tune the narration voice",
	}
	voiceCmd.AddCommand(newVoiceListCommand())
	voiceCmd.AddCommand(newVoiceSelectCommand(ctx))
	voiceCmd.AddCommand(newVoiceSettingsCommand(ctx))
	return voiceCmd
}

func newVoiceListCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "list",
		Short:       "List available voices",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			voices := project.Voices()
			rows := make([][]string, 0, len(voices))
			for _, v := range voices {
				rows = append(rows, []string{v.ID, v.Name, v.Tone, v.Gender, v.Accent})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Name", "Tone", "Gender", "Accent"}, rows, nil))
			return nil
		},
	}
}

func newVoiceSelectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "select <voice>",
		Short: "Select a voice by id or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			voice, ok := project.LookupVoice(args[0])
			if !ok {
				return fmt.Errorf("unknown voice %q (run `avatarstudio voice list`)", args[0])
			}
			return ctx.withSession(cmd, func(s *session) error {
				_, err := s.projects.Update(cmd.Context(), func(p *project.ProjectState) error {
					p.Voice.Selected = &voice
					advanceStep(p, wizard.StepVideo)
					return nil
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Voice set to %s (%s)\n", voice.Name, voice.Tone)
				return nil
			})
		},
	}
}

func newVoiceSettingsCommand(ctx *commandContext) *cobra.Command {
	var speed, pitch, pause float64
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Adjust speed, pitch, and pause duration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				next, err := s.projects.Update(cmd.Context(), func(p *project.ProjectState) error {
					settings := p.Voice.Settings
					if cmd.Flags().Changed("speed") {
						settings.Speed = speed
					}
					if cmd.Flags().Changed("pitch") {
						settings.Pitch = pitch
					}
					if cmd.Flags().Changed("pause") {
						settings.PauseDuration = pause
					}
					if err := project.ValidateVoiceSettings(settings); err != nil {
						return err
					}
					p.Voice.Settings = settings
					return nil
				})
				if err != nil {
					return err
				}
				v := next.Voice.Settings
				fmt.Fprintf(cmd.OutOrStdout(), "Voice settings: speed %.2f, pitch %.2f, pause %.2fs\n", v.Speed, v.Pitch, v.PauseDuration)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&speed, "speed", 1.0, "Speaking rate (0.5-2.0)")
	cmd.Flags().Float64Var(&pitch, "pitch", 1.0, "Pitch multiplier (0.5-2.0)")
	cmd.Flags().Float64Var(&pause, "pause", 0.5, "Pause between sentences in seconds (0-2.0)")
	return cmd
}

func newVideoCommand(ctx *commandContext) *cobra.Command {
	videoCmd := &cobra.Command{
		Use:   "video",
		Short: "Output format settings",
	}
	videoCmd.AddCommand(newVideoSetCommand(ctx))
	return videoCmd
}

func newVideoSetCommand(ctx *commandContext) *cobra.Command {
	var (
		aspect, resolution, bgType, bgValue string
		subtitles                           bool
		subtitleStyle, subtitleLanguage     string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change aspect ratio, resolution, background, or subtitles",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			return ctx.withSession(cmd, func(s *session) error {
				next, err := s.projects.Update(cmd.Context(), func(p *project.ProjectState) error {
					video := p.Video
					if flags.Changed("aspect") {
						v, err := project.ParseAspectRatio(aspect)
						if err != nil {
							return err
						}
						video.AspectRatio = v
					}
					if flags.Changed("resolution") {
						v, err := project.ParseResolution(resolution)
						if err != nil {
							return err
						}
						video.Resolution = v
					}
					if flags.Changed("background") {
						v, err := project.ParseBackgroundType(bgType)
						if err != nil {
							return err
						}
						video.Background.Type = v
					}
					if flags.Changed("background-value") {
						video.Background.Value = bgValue
					}
					if flags.Changed("subtitles") {
						video.Subtitles.Enabled = subtitles
					}
					if flags.Changed("subtitle-style") {
						video.Subtitles.Style = subtitleStyle
					}
					if flags.Changed("subtitle-language") {
						video.Subtitles.Language = subtitleLanguage
						if code, err := language.Normalize(subtitleLanguage); err == nil {
							video.Subtitles.Language = code
						}
					}
					if err := project.ValidateVideo(video); err != nil {
						return err
					}
					p.Video = video
					return nil
				})
				if err != nil {
					return err
				}
				v := next.Video
				fmt.Fprintf(cmd.OutOrStdout(), "Video: %s %s, background %s, subtitles %s\n",
					v.AspectRatio, v.Resolution, v.Background.Type, yesNo(v.Subtitles.Enabled))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&aspect, "aspect", "", "Aspect ratio (16:9, 9:16, 1:1, 4:5)")
	cmd.Flags().StringVar(&resolution, "resolution", "", "Resolution (720p, 1080p, 4k)")
	cmd.Flags().StringVar(&bgType, "background", "", "Background type (color, gradient, image, greenscreen, ai)")
	cmd.Flags().StringVar(&bgValue, "background-value", "", "Colour, gradient, image path, or scene description")
	cmd.Flags().BoolVar(&subtitles, "subtitles", false, "Burn in subtitles")
	cmd.Flags().StringVar(&subtitleStyle, "subtitle-style", "", "Subtitle style name")
	cmd.Flags().StringVar(&subtitleLanguage, "subtitle-language", "", "Subtitle language (code, name, or BCP 47 tag)")
	return cmd
}
