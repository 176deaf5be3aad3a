package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"avatarstudio/internal/jobclient"
	"avatarstudio/internal/lifecycle"
	"avatarstudio/internal/preflight"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the generation service and local directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			client, err := ctx.jobClient(logger)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := lifecycle.ShouldColorize(out)
			for _, line := range renderSectionHeader("Readiness", colorize) {
				fmt.Fprintln(out, line)
			}
			results := preflight.RunAll(cmd.Context(), cfg, client)
			for _, r := range results {
				kind := statusOK
				switch {
				case r.Passed:
				case r.Optional:
					kind = statusWarn
				default:
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			if !preflight.Failed(results) {
				return nil
			}

			if err := client.Health(cmd.Context()); err != nil {
				var live *jobclient.LivenessError
				if errors.As(err, &live) {
					fmt.Fprintln(out)
					printLivenessBanner(out, live)
				}
				return err
			}
			return errors.New("one or more readiness checks failed")
		},
	}
}
