package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"avatarstudio/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, formatError(err))
		}
		os.Exit(1)
	}
}

// formatError renders err for the terminal. Errors the user can act on are
// printed as is; anything else points at the log.
func formatError(err error) string {
	if services.IsUserFacing(err) {
		return fmt.Sprintf("Error: %v", err)
	}
	return fmt.Sprintf("Error: %v\nRun `avatarstudio logs --level error` for details.", err)
}
