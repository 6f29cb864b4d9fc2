// Package config loads, normalizes, and validates Storyline configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STORYLINE_API_TOKEN. The Config type centralizes every knob the daemon and
// CLI need: where the artifact database lives, how the API binds, which
// per-stage prerequisite rules are enforced, and how logs and metrics are
// emitted.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
