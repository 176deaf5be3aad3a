// Package config loads, normalizes, and validates avatarstudio configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a local .env file, and honours
// environment fallbacks such as AVATARSTUDIO_API_URL. The Config type
// centralizes every knob the CLI needs so the remote service location, data
// directories, and polling cadence are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
