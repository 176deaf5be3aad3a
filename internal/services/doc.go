// Package services defines shared utilities consumed by the generation
// controller and the remote service clients.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, project IDs, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (validation vs remote vs transient) with errors.Is.
//
// Use these helpers when wiring new client code so error handling and
// observability stay uniform across the CLI.
package services
