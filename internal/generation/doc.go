// Package generation owns the single active video generation job.
//
// A Controller submits the current project, follows the remote job until it
// reaches a terminal status, and writes every observed progress value back
// into the project store. Each submission runs inside its own cancellable
// job scope; starting a new job or resetting the project invalidates the
// previous scope so late results from an abandoned loop never reach state.
//
// The controller also implements lifecycle.Actions, so the lifecycle view
// can forward cancel, download, create-another and edit-and-regenerate
// requests to it unchanged.
package generation
