package preflight

import (
	"context"

	"avatarstudio/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional checks cover features that degrade gracefully when absent.
	Optional bool
}

// Failed reports whether any required check did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return true
		}
	}
	return false
}

// Pinger is satisfied by the generation service client.
type Pinger interface {
	Health(ctx context.Context) error
	BaseURL() string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, service Pinger) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.Paths.DownloadDir != "" {
		download := CheckDirectoryAccess("Download directory", cfg.Paths.DownloadDir)
		download.Optional = true
		results = append(results, download)
	}
	if service != nil {
		results = append(results, CheckService(ctx, service))
	}
	results = append(results, CheckNotifications(cfg))
	return results
}
