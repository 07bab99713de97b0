// Package config loads, normalizes, and validates podscribe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GOOGLE_APPLICATION_CREDENTIALS. The Config type centralizes every knob the
// CLI needs: working directories, media tool binaries, the remote recognizer's
// credentials and transport retry policy, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
