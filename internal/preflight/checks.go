package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"avatarstudio/internal/config"
)

// CheckService verifies that the generation service answers its health probe.
// The client applies its own health timeout.
func CheckService(ctx context.Context, service Pinger) Result {
	const name = "Generation service"

	if err := service.Health(ctx); err != nil {
		return Result{Name: name, Detail: summarizeServiceError(err)}
	}
	return Result{Name: name, Passed: true, Detail: service.BaseURL()}
}

// CheckNotifications reports whether ntfy notifications are configured.
// Notifications are optional, so an empty topic still passes.
func CheckNotifications(cfg *config.Config) Result {
	const name = "Notifications"

	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled", Optional: true}
	}
	var events []string
	if cfg.Notifications.Completed {
		events = append(events, "completed")
	}
	if cfg.Notifications.Failed {
		events = append(events, "failed")
	}
	if len(events) == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (no events enabled)", topic), Optional: true}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", topic, strings.Join(events, ", ")), Optional: true}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeServiceError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (service unreachable)"
	}
	return err.Error()
}
