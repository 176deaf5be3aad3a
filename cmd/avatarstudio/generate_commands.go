package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"avatarstudio/internal/generation"
	"avatarstudio/internal/jobclient"
	"avatarstudio/internal/lifecycle"
	"avatarstudio/internal/logging"
	"avatarstudio/internal/project"
	"avatarstudio/internal/services"
	"avatarstudio/internal/store"
)

var errGenerationFailed = errors.New("generation failed")

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var download bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Submit the project and follow the job until the video is ready",
		Long: "Submit the project to the generation service and print progress until the job " +
			"completes or fails. Press Ctrl+C to stop following the job.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, ctx, download, func(c context.Context, _ *session, ctrl *generation.Controller) (project.GenerationProgress, error) {
				return ctrl.Start(c)
			})
		},
	}
	cmd.Flags().BoolVar(&download, "download", false, "Download the video when the job completes")
	return cmd
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var download bool
	cmd := &cobra.Command{
		Use:   "watch [job-id]",
		Short: "Re-attach to a previously submitted job",
		Long:  "Re-attach to a previously submitted job. Without a job id the most recently submitted job is followed.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, ctx, download, func(c context.Context, s *session, ctrl *generation.Controller) (project.GenerationProgress, error) {
				if len(args) == 1 {
					return ctrl.Watch(c, args[0])
				}
				latest, err := s.db.LatestJob(c)
				if err != nil {
					return s.projects.Snapshot().Generation, err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Watching job %s\n", latest.ID)
				return ctrl.Watch(c, latest.ID)
			})
		},
	}
	cmd.Flags().BoolVar(&download, "download", false, "Download the video when the job completes")
	return cmd
}

type jobRunner func(context.Context, *session, *generation.Controller) (project.GenerationProgress, error)

// runJob holds the generation lock, renders live progress while run
// executes, and prints the final presentation. SIGINT and SIGTERM cancel
// the job scope.
func runJob(cmd *cobra.Command, ctx *commandContext, download bool, run jobRunner) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	lock, err := store.AcquireGenerationLock(cfg.LockPath())
	if err != nil {
		if errors.Is(err, store.ErrGenerationLocked) {
			return fmt.Errorf("another avatarstudio generation is already running for %s", cfg.Paths.DataDir)
		}
		return err
	}
	defer lock.Release()

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return ctx.withSession(cmd, func(s *session) error {
		out := cmd.OutOrStdout()
		ctrl := s.controller()
		view := lifecycle.NewView(ctrl)

		var last project.GenerationProgress
		unsubscribe := s.projects.Subscribe(func(state project.ProjectState) {
			g := state.Generation
			if g.Status != project.StatusProcessing {
				return
			}
			if g.Progress == last.Progress && g.Stage == last.Stage && g.JobID == last.JobID {
				view.Observe(g)
				return
			}
			last = g
			if err := view.RenderLine(out, g); err != nil {
				s.logger.Debug("progress render failed", logging.Error(err))
			}
		})
		final, runErr := run(runCtx, s, ctrl)
		unsubscribe()

		var live *jobclient.LivenessError
		if errors.As(runErr, &live) {
			printLivenessBanner(out, live)
			return runErr
		}
		if services.IsUserFacing(runErr) || final.Status == project.StatusIdle {
			return runErr
		}
		if err := view.Render(out, final); err != nil {
			return err
		}

		switch final.Status {
		case project.StatusCompleted:
			if download {
				path, err := ctrl.DownloadTo(runCtx, s.cfg.Paths.DownloadDir)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved %s\n", path)
				return nil
			}
			return offerNextAction(cmd, s, view, final)
		case project.StatusCancelled:
			return context.Canceled
		case project.StatusFailed:
			if err := offerNextAction(cmd, s, view, final); err != nil {
				s.logger.Debug("follow-up action failed", logging.Error(err))
			}
			return errGenerationFailed
		}
		return runErr
	})
}

// offerNextAction asks which lifecycle action to take when stdin is a
// terminal. Non-interactive runs skip the prompt.
func offerNextAction(cmd *cobra.Command, s *session, view *lifecycle.View, final project.GenerationProgress) error {
	if !isTerminal() {
		return nil
	}
	actions := lifecycle.AvailableActions(lifecycle.Select(final))
	if len(actions) == 0 {
		return nil
	}
	options := make([]huh.Option[string], 0, len(actions)+1)
	for _, a := range actions {
		options = append(options, huh.NewOption(a.Label, string(a.Action)))
	}
	options = append(options, huh.NewOption("Nothing for now", ""))

	var choice string
	form := newForm(huh.NewGroup(
		huh.NewSelect[string]().Title("What next?").Options(options...).Value(&choice),
	))
	if err := form.Run(); err != nil {
		return err
	}
	if choice == "" {
		return nil
	}
	if err := view.Dispatch(cmd.Context(), lifecycle.Action(choice)); err != nil {
		return err
	}
	describeAction(cmd.OutOrStdout(), s, lifecycle.Action(choice))
	return nil
}

func describeAction(out io.Writer, s *session, action lifecycle.Action) {
	switch action {
	case lifecycle.ActionDownload:
		fmt.Fprintf(out, "Video saved under %s\n", s.cfg.Paths.DownloadDir)
	case lifecycle.ActionCreateAnother:
		fmt.Fprintln(out, "Started a new project")
	case lifecycle.ActionEditAndRegenerate:
		fmt.Fprintln(out, "Back on the video step; adjust settings and run `avatarstudio generate` again")
	}
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "download [job-id]",
		Short: "Download the finished video of the project or of a past job",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				target := dir
				if target == "" {
					target = s.cfg.Paths.DownloadDir
				}
				ctrl := s.controller()
				var (
					path string
					err  error
				)
				if len(args) == 1 {
					path, err = ctrl.DownloadJob(cmd.Context(), args[0], target)
				} else {
					path, err = ctrl.DownloadTo(cmd.Context(), target)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Destination directory (defaults to paths.download_dir)")
	return cmd
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the current project and start a new one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				if err := s.db.ClearProject(cmd.Context()); err != nil {
					return err
				}
				if err := s.controller().CreateAnother(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Started new project %s\n", s.projects.Snapshot().ProjectID)
				return nil
			})
		},
	}
}
