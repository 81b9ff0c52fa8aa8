// Package config loads and validates the relay's YAML configuration.
// Values pass through environment variable expansion, then defaults are
// applied for anything left unset.
package config
