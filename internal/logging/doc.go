// Package logging builds the slog loggers shared by the hub, the relay proxy
// and the CLI.
//
// It owns the console and JSON handlers, level parsing, output routing and
// the standard field names (component, event_type, error_hint, impact,
// client_id, session_id). The Native Messaging proxy must never write logs to
// stdout, so callers pick outputs explicitly through Options.OutputPaths.
//
// Prefer these constructors and helpers over ad-hoc slog setup so every
// process emits records with the same shape.
package logging
