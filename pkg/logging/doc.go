// Package logging provides a small facade over log/slog used by every
// subsystem of payments-mcp. Call Init once at startup, then log with
// Debug/Info/Warn/Error, passing the subsystem name as the first argument
// (e.g. "Auth", "Router", "OAuth").
package logging
