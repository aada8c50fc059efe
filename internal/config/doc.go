// Package config loads, normalizes, and validates yt2text configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts and XDG base directories), reads TOML files, and honours
// environment fallbacks such as OPENROUTER_API_KEY and HF_TOKEN.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
