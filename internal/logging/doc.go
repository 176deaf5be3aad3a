// Package logging assembles structured slog loggers and formatting helpers used
// across avatarstudio.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so generation code can tag log
// lines with job IDs, project IDs, and correlation IDs. Console output goes to
// stderr so command output on stdout stays scriptable; a JSON copy is appended
// to the log directory when one is configured. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
