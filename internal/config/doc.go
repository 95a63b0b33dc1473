// Package config loads, normalizes, and validates deskrelay configuration.
//
// It supplies defaults for the hub, relay and proxy timings, expands user
// paths (including tilde shortcuts), reads TOML files, resolves the
// platform-specific socket path and honours the DESKRELAY_SOCKET override.
// Both executables obtain their settings through this package so the hub and
// the proxy agree on where the socket lives.
package config
