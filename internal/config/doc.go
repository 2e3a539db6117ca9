// Package config loads, normalizes, and validates cinematch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY, RADARR_API_KEY and OPENROUTER_API_KEY. The Config type
// centralizes every knob the CLI needs: catalog, reasoning and library
// credentials, matching thresholds, run limits, and outputs.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
