// Package project models the in-progress avatar video project and owns the
// in-memory state store that every wizard command and the generation
// controller mutate.
//
// ProjectState holds the avatar selection (a closed sum type of library and
// upload variants), script, voice, video settings, and the current generation
// progress. Store guards a single ProjectState behind a mutex with
// replace-on-write updates, persists the durable subset through an optional
// Persister, and fans new snapshots out to subscribers. Durable and Restore
// define exactly what survives a restart: generation progress never does.
package project
