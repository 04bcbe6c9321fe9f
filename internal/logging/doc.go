// Package logging builds slog loggers with grist's output conventions: a
// terse console format for interactive use, JSON for machine consumption,
// and typed attribute helpers shared across components.
package logging
