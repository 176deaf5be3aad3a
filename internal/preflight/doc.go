// Package preflight provides readiness checks for the local directories and
// remote endpoints avatarstudio depends on.
//
// The CLI "avatarstudio health" command runs RunAll and renders each Result
// as a status line. Checks for optional features are skipped when the
// feature is not configured.
package preflight
