// Package config loads, normalizes, and validates plextagger configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PLEX_URL, PLEX_TOKEN, and OLLAMA_URL so the container deployment can run
// without a config file at all. Missing required settings surface as
// validation errors and the CLI exits non-zero.
package config
