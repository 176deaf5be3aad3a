// Package notifications delivers generation events via ntfy.
//
// The default implementation publishes to the topic URL configured in
// config.toml (or NTFY_TOPIC) and degrades to a no-op when no topic is set.
// Per-event switches let users silence completion or failure pushes.
package notifications
