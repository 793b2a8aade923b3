// Package config loads, validates, and normalizes the TOML configuration
// shared by the triage daemon and CLI.
package config
