package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"avatarstudio/internal/lifecycle"
	"avatarstudio/internal/store"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect the local history of submitted jobs",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsDeleteCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				jobs, err := s.db.ListJobs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(jobs) == 0 {
					fmt.Fprintln(out, "No jobs yet")
					return nil
				}
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						job.ID,
						string(job.Status),
						lifecycle.StageLabel(job.Stage),
						strconv.Itoa(job.Progress) + "%",
						formatTimestamp(job.CreatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Job", "Status", "Stage", "Progress", "Submitted"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to list")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				out := cmd.OutOrStdout()
				if remote {
					job, err := s.client.Get(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					pairs := [][2]string{
						{"Job", string(job.ID)},
						{"Status", job.Status},
						{"Prompt", job.Prompt},
						{"Video", job.OutputVideoURL},
						{"Thumbnail", job.ThumbnailURL},
						{"Error", job.ErrorMessage},
						{"Created", formatTimestamp(job.CreatedAt)},
						{"Updated", formatTimestamp(job.UpdatedAt)},
					}
					if job.ProcessingTimeSeconds > 0 {
						pairs = append(pairs, [2]string{"Processing time", (time.Duration(job.ProcessingTimeSeconds * float64(time.Second))).Round(time.Second).String()})
					}
					fmt.Fprintln(out, renderKeyValues(pairs))
					return nil
				}
				job, err := s.db.GetJob(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderKeyValues(jobSummary(job)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Fetch the job from the generation service")
	return cmd
}

func jobSummary(job *store.Job) [][2]string {
	return [][2]string{
		{"Job", job.ID},
		{"Project", job.ProjectID},
		{"Status", string(job.Status)},
		{"Stage", lifecycle.StageLabel(job.Stage)},
		{"Progress", strconv.Itoa(job.Progress) + "%"},
		{"Message", job.Message},
		{"Video", job.VideoURL},
		{"Error", job.ErrorMessage},
		{"Emotion", job.Emotion},
		{"Prompt", job.Prompt},
		{"Submitted", formatTimestamp(job.CreatedAt)},
		{"Updated", formatTimestamp(job.UpdatedAt)},
	}
}

func newJobsDeleteCommand(ctx *commandContext) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "delete <job-id>",
		Short: "Remove a job from local history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				if remote {
					if err := s.client.Delete(cmd.Context(), args[0]); err != nil {
						return err
					}
				}
				if err := s.db.DeleteJob(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %s\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Also delete the job and its video on the generation service")
	return cmd
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every job from local history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				n, err := s.db.ClearJobs(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job(s)\n", n)
				return nil
			})
		},
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(time.DateTime)
}
