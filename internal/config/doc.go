// Package config loads, normalizes, and validates autopost configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TELEGRAM_BOT_TOKEN. The Config type centralizes every knob the daemon and
// CLI need: the dispatch schedule, the publish surface heuristics, browser
// launch options, and phase timings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, lower-cased keyword lists, and clear validation errors.
package config
