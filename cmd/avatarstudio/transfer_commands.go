package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"avatarstudio/internal/fileutil"
	"avatarstudio/internal/project"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the project selections as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				state := s.projects.Snapshot()
				if output == "" || output == "-" {
					return project.ExportYAML(cmd.OutOrStdout(), state)
				}
				if _, err := fileutil.WriteAtomic(output, 0o644, func(w io.Writer) error {
					return project.ExportYAML(w, state)
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported project to %s\n", output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (defaults to stdout)")
	return cmd
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the project with selections from a YAML export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				imported project.ProjectState
				err      error
			)
			if args[0] == "-" {
				imported, err = project.ImportYAML(cmd.InOrStdin())
			} else {
				f, openErr := os.Open(args[0])
				if openErr != nil {
					return fmt.Errorf("open import file: %w", openErr)
				}
				imported, err = project.ImportYAML(f)
				f.Close()
			}
			if err != nil {
				return err
			}
			return ctx.withSession(cmd, func(s *session) error {
				_, err := s.projects.Update(cmd.Context(), func(p *project.ProjectState) error {
					*p = imported
					return nil
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported project %s\n", imported.ProjectID)
				return nil
			})
		},
	}
}
